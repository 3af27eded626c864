package constants

// CascadeStage names the ordered extraction stages. Stable values; they end
// up in logs and persisted document rows.
type CascadeStage string

const (
	StagePrimary     CascadeStage = "PRIMARY"
	StageSecondary   CascadeStage = "SECONDARY"
	StageTertiary    CascadeStage = "TERTIARY"
	StageContingency CascadeStage = "CONTINGENCY"
)
