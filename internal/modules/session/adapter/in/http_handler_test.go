package in_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionhttp "mindtrack/internal/modules/session/adapter/in"
	sessiondto "mindtrack/internal/modules/session/dto"
	sessionin "mindtrack/internal/modules/session/port/in"
	apperrors "mindtrack/internal/platform/errors"
	"mindtrack/internal/platform/logging"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixedID struct{}

func (fixedID) New() string { return "req-1" }

type fakeUsecase struct {
	sessionin.Usecase

	created  sessiondto.CreateInput
	advanced *sessiondto.AdvanceInput
	frame    []byte
	recorded string
	limit    int
	err      error
}

func (f *fakeUsecase) Create(_ context.Context, input sessiondto.CreateInput) (sessiondto.SessionOutput, error) {
	f.created = input
	if f.err != nil {
		return sessiondto.SessionOutput{}, f.err
	}
	return sessiondto.SessionOutput{
		ID:           "sess-1",
		State:        "active",
		TotalMinutes: input.TotalMinutes,
		Topics:       []sessiondto.TopicOutput{{Key: "t1", Name: "Algebra", TimeMinutes: 15}, {Key: "t2", Name: "Optics", TimeMinutes: 15}},
	}, nil
}

func (f *fakeUsecase) Current(context.Context) (sessiondto.CurrentOutput, error) {
	if f.err != nil {
		return sessiondto.CurrentOutput{}, f.err
	}
	return sessiondto.CurrentOutput{
		SessionID:        "sess-1",
		State:            "paused",
		Topic:            sessiondto.TopicOutput{Key: "t1", Name: "Algebra", Subject: "Math", TimeMinutes: 15, ElapsedSeconds: 125},
		TotalTopics:      2,
		RemainingSeconds: 775,
		Paused:           true,
	}, nil
}

func (f *fakeUsecase) AdvanceTopic(_ context.Context, input sessiondto.AdvanceInput) (sessiondto.AdvanceOutput, error) {
	f.advanced = &input
	if input.Completed {
		return sessiondto.AdvanceOutput{Next: &sessiondto.TopicOutput{Name: "Optics", Subject: "Physics"}}, nil
	}
	return sessiondto.AdvanceOutput{Finished: true}, nil
}

func (f *fakeUsecase) Pause(context.Context) (sessiondto.SessionOutput, error) {
	return sessiondto.SessionOutput{}, f.err
}

func (f *fakeUsecase) DetectEmotion(_ context.Context, frame []byte) (sessiondto.EmotionOutput, error) {
	f.frame = frame
	return sessiondto.EmotionOutput{Emotion: "neutral", Buffer: []string{"neutral"}}, nil
}

func (f *fakeUsecase) RecordEmotion(_ context.Context, emotion string) (sessiondto.EmotionOutput, error) {
	f.recorded = emotion
	return sessiondto.EmotionOutput{
		Emotion: emotion,
		Buffer:  []string{emotion, emotion, emotion},
		Trigger: sessiondto.TriggerOutput{Ready: true, Message: "take a break"},
	}, nil
}

func (f *fakeUsecase) Reschedule(context.Context) (sessiondto.RescheduleOutput, error) {
	return sessiondto.RescheduleOutput{}, f.err
}

func (f *fakeUsecase) CheckAllocator(context.Context) sessiondto.AllocatorStatusOutput {
	return sessiondto.AllocatorStatusOutput{Connected: true, Model: "llama3.2"}
}

func (f *fakeUsecase) History(_ context.Context, limit int) ([]sessiondto.HistoryOutput, error) {
	f.limit = limit
	return []sessiondto.HistoryOutput{{SessionID: "sess-0", State: "completed", TotalTopics: 3}}, nil
}

func newServer(t *testing.T, usecase *fakeUsecase) *httptest.Server {
	t.Helper()
	handler := sessionhttp.NewHTTPHandler(
		usecase,
		logging.Discard(),
		fixedClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
		fixedID{},
		[]string{"http://localhost:5173"},
		sessionhttp.HTTPInfo{Name: "mindtrack", Version: "test"},
	)
	server := httptest.NewServer(handler.Handler())
	t.Cleanup(server.Close)
	return server
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	body := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestCreateSessionGroupsSubjects(t *testing.T) {
	t.Parallel()
	usecase := &fakeUsecase{}
	server := newServer(t, usecase)

	payload := `{"total_time_minutes":30,"subjects":[{"name":"Math","topics":[{"name":"Algebra","level":"unknown"}]},{"name":"Physics","topics":[{"name":"Optics"}]}]}`
	resp, err := http.Post(server.URL+"/api/sessions/create", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "req-1", resp.Header.Get("X-Request-ID"))

	body := decode(t, resp)
	assert.Equal(t, "sess-1", body["session_id"])
	assert.Equal(t, "Session created successfully", body["message"])
	assert.EqualValues(t, 2, body["total_topics"])
	assert.EqualValues(t, 30, body["total_time_minutes"])

	require.Len(t, usecase.created.Subjects, 2)
	assert.Equal(t, "Math", usecase.created.Subjects[0].Name)
	assert.Equal(t, "unknown", usecase.created.Subjects[0].Topics[0].Level)
	assert.Equal(t, "Optics", usecase.created.Subjects[1].Topics[0].Name)
}

func TestCurrentReportsMinutesSpent(t *testing.T) {
	t.Parallel()
	server := newServer(t, &fakeUsecase{})

	resp, err := http.Get(server.URL + "/api/sessions/current")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.EqualValues(t, 775, body["timer_remaining_seconds"])
	assert.Equal(t, true, body["is_paused"])
	topic := body["topic"].(map[string]any)
	assert.Equal(t, "Algebra", topic["name"])
	assert.EqualValues(t, 2, topic["actual_time_spent"])
}

func TestCompleteTopicResponses(t *testing.T) {
	t.Parallel()
	usecase := &fakeUsecase{}
	server := newServer(t, usecase)

	resp, err := http.Post(server.URL+"/api/sessions/topic/complete", "application/json", strings.NewReader(`{"completed":true}`))
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, false, body["session_complete"])
	assert.Equal(t, "Optics", body["next_topic"])
	assert.Equal(t, "Physics", body["next_subject"])

	resp, err = http.Post(server.URL+"/api/sessions/topic/complete", "application/json", strings.NewReader(`{"completed":false}`))
	require.NoError(t, err)
	body = decode(t, resp)
	assert.Equal(t, true, body["session_complete"])
	assert.Equal(t, "Session completed", body["message"])
	require.NotNil(t, usecase.advanced)
	assert.False(t, usecase.advanced.Completed)
}

func TestCompleteTopicRequiresFlag(t *testing.T) {
	t.Parallel()
	usecase := &fakeUsecase{}
	server := newServer(t, usecase)

	resp, err := http.Post(server.URL+"/api/sessions/topic/complete", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Contains(t, body["error"], "completed is required")
	assert.Equal(t, "2026-05-01T12:00:00Z", body["timestamp"])
	assert.Nil(t, usecase.advanced)
}

func TestErrorStatusMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.ErrNoActiveSession, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", sessionin.ErrSessionNotFound), http.StatusNotFound},
		{apperrors.ErrActiveSessionExists, http.StatusBadRequest},
		{sessionin.ErrInvalidState, http.StatusBadRequest},
		{sessionin.ErrInsufficientRemainingTime, http.StatusBadRequest},
		{fmt.Errorf("%w: refused", apperrors.ErrAllocatorUnavailable), http.StatusServiceUnavailable},
		{apperrors.ErrAllocatorInvalidResponse, http.StatusBadGateway},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sessionhttp.StatusFor(tc.err), tc.err.Error())
	}
}

func TestRescheduleUnavailableReturns503(t *testing.T) {
	t.Parallel()
	server := newServer(t, &fakeUsecase{err: fmt.Errorf("%w: connection refused", apperrors.ErrAllocatorUnavailable)})

	resp, err := http.Post(server.URL+"/api/reschedule/trigger", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode(t, resp)
	assert.Contains(t, body["error"], "connection refused")
}

func TestDetectReadsMultipartFrame(t *testing.T) {
	t.Parallel()
	usecase := &fakeUsecase{}
	server := newServer(t, usecase)

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", "frame.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("frame-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(server.URL+"/api/emotions/detect", writer.FormDataContentType(), buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "neutral", body["emotion"])
	assert.Equal(t, []byte("frame-bytes"), usecase.frame)
}

func TestDetectWithoutFileIsBadRequest(t *testing.T) {
	t.Parallel()
	server := newServer(t, &fakeUsecase{})

	resp, err := http.Post(server.URL+"/api/emotions/detect", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestRecordEmotionReportsTrigger(t *testing.T) {
	t.Parallel()
	usecase := &fakeUsecase{}
	server := newServer(t, usecase)

	resp, err := http.Post(server.URL+"/api/emotions/record", "application/json", strings.NewReader(`{"emotion":"tired"}`))
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, "tired", usecase.recorded)
	assert.Equal(t, true, body["trigger_ready"])
	assert.Equal(t, "take a break", body["message"])
}

func TestHistoryLimit(t *testing.T) {
	t.Parallel()
	usecase := &fakeUsecase{}
	server := newServer(t, usecase)

	resp, err := http.Get(server.URL + "/api/sessions/history?limit=5")
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, 5, usecase.limit)
	assert.Len(t, body["sessions"], 1)

	resp, err = http.Get(server.URL + "/api/sessions/history?limit=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	server := newServer(t, &fakeUsecase{})

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/sessions/pause", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestCheckAllocator(t *testing.T) {
	t.Parallel()
	server := newServer(t, &fakeUsecase{})

	resp, err := http.Get(server.URL + "/api/reschedule/check-ollama")
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, "connected", body["status"])
	assert.Equal(t, "llama3.2", body["model"])
}

func TestParseTopicArgs(t *testing.T) {
	t.Parallel()
	input, err := sessionhttp.ParseTopicArgs(45, []string{"Math:Algebra:unknown", "Physics:Optics", "Math:Calculus"})
	require.NoError(t, err)
	assert.Equal(t, 45, input.TotalMinutes)
	require.Len(t, input.Subjects, 2)
	assert.Len(t, input.Subjects[0].Topics, 2)
	assert.Equal(t, "Calculus", input.Subjects[0].Topics[1].Name)
	assert.Equal(t, "", input.Subjects[1].Topics[0].Level)

	_, err = sessionhttp.ParseTopicArgs(45, []string{"Algebra"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
