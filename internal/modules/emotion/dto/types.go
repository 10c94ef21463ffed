package dto

type ClassifierInfo struct {
	Name    string
	Version string
	Enabled bool
	Binary  string
}

type DoctorResult struct {
	Name            string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Labels          []string
	Error           string
}

type ClassifyOutput struct {
	Classifier string
	Raw        string
	Label      string
	Confidence float64
}
