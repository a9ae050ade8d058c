package query

import (
	"github.com/dgallion1/docscope/internal/summarize"
)

// Result is the assembled answer to a Request.
type Result struct {
	Metadata           Metadata           `json:"metadata" yaml:"metadata"`
	ExtractedSections  []ExtractedSection `json:"extracted_sections" yaml:"extracted_sections"`
	SubSectionAnalysis []SubSection       `json:"sub_section_analysis" yaml:"sub_section_analysis"`
}

type Metadata struct {
	QueryID               string     `json:"query_id" yaml:"query_id"`
	InputDocuments        []string   `json:"input_documents" yaml:"input_documents"`
	Persona               string     `json:"persona" yaml:"persona"`
	JobToBeDone           string     `json:"job_to_be_done" yaml:"job_to_be_done"`
	ProcessingTimestamp   string     `json:"processing_timestamp" yaml:"processing_timestamp"`
	ProcessingTimeSeconds float64    `json:"processing_time_seconds" yaml:"processing_time_seconds"`
	TotalPDFsProcessed    int        `json:"total_pdfs_processed" yaml:"total_pdfs_processed"`
	ModelsUsed            ModelsUsed `json:"models_used" yaml:"models_used"`
}

type ModelsUsed struct {
	Embeddings    string `json:"embeddings" yaml:"embeddings"`
	Similarity    string `json:"similarity" yaml:"similarity"`
	Summarization string `json:"summarization" yaml:"summarization"`
}

// ExtractedSection is one ranked section of one document.
type ExtractedSection struct {
	Document       string  `json:"document" yaml:"document"`
	PageNumber     int     `json:"page_number" yaml:"page_number"`
	SectionTitle   string  `json:"section_title" yaml:"section_title"`
	ImportanceRank int     `json:"importance_rank" yaml:"importance_rank"`
	Score          float64 `json:"score" yaml:"score"`
}

// SubSection is the extractive summary of one ranked section.
type SubSection struct {
	Document      string           `json:"document" yaml:"document"`
	RefinedText   string           `json:"refined_text" yaml:"refined_text"`
	PageStart     int              `json:"page_start" yaml:"page_start"`
	PageEnd       int              `json:"page_end" yaml:"page_end"`
	SummaryMethod summarize.Method `json:"summary_method" yaml:"summary_method"`
}
