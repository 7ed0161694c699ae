package domain

// Placement is the outcome of writing one output artifact. A skipped
// placement means the target already existed and overwriting is disabled;
// the source file must not be deleted in that case.
type Placement struct {
	Path    string
	Skipped bool
}

// PlacedArtifact describes a successfully written artifact for downstream
// consumers.
type PlacedArtifact struct {
	SourcePath   string  `json:"source_path"`
	ArtifactPath string  `json:"artifact_path"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
}
