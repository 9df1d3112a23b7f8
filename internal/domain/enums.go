package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// ProcessingStatus represents the lifecycle of a document through the pipeline.
type ProcessingStatus string

const (
	StatusUploaded      ProcessingStatus = "uploaded"
	StatusQueued        ProcessingStatus = "queued"
	StatusProcessing    ProcessingStatus = "processing"
	StatusBasicComplete ProcessingStatus = "basic_complete"
	StatusComplete      ProcessingStatus = "complete"
	StatusFailed        ProcessingStatus = "failed"
)

// IsProcessed reports whether a status means the document's text has already
// been extracted and persisted.
func (s ProcessingStatus) IsProcessed() bool {
	return s == StatusBasicComplete || s == StatusComplete
}

// DiagramType enumerates the diagram classes the classifier is constrained to.
type DiagramType string

const (
	DiagramSitePlan          DiagramType = "site_plan"
	DiagramSewer             DiagramType = "sewer_diagram"
	DiagramFloodMap          DiagramType = "flood_map"
	DiagramTitlePlan         DiagramType = "title_plan"
	DiagramSurvey            DiagramType = "survey_diagram"
	DiagramFloorPlan         DiagramType = "floor_plan"
	DiagramElevation         DiagramType = "elevation"
	DiagramDrainage          DiagramType = "drainage_diagram"
	DiagramZoningMap         DiagramType = "zoning_map"
	DiagramBodyCorporatePlan DiagramType = "body_corporate_plan"
	DiagramUnknown           DiagramType = "unknown"
)

// KnownDiagramTypes is the closed set accepted from the classifier; anything
// else is mapped to DiagramUnknown.
var KnownDiagramTypes = map[DiagramType]bool{
	DiagramSitePlan:          true,
	DiagramSewer:             true,
	DiagramFloodMap:          true,
	DiagramTitlePlan:         true,
	DiagramSurvey:            true,
	DiagramFloorPlan:         true,
	DiagramElevation:         true,
	DiagramDrainage:          true,
	DiagramZoningMap:         true,
	DiagramBodyCorporatePlan: true,
	DiagramUnknown:           true,
}

// NormalizeDiagramType maps an arbitrary classifier label into the known set.
func NormalizeDiagramType(s string) DiagramType {
	t := DiagramType(s)
	if KnownDiagramTypes[t] {
		return t
	}
	return DiagramUnknown
}

// LayoutRole is the semantic role assigned to a font size during layout
// formatting.
type LayoutRole string

const (
	RoleMainTitle         LayoutRole = "main_title"
	RoleSectionHeading    LayoutRole = "section_heading"
	RoleSubsectionHeading LayoutRole = "subsection_heading"
	RoleEmphasisText      LayoutRole = "emphasis_text"
	RoleBodyText          LayoutRole = "body_text"
	RoleOther             LayoutRole = "other"
)

// ExtractionMethod identifies how a page's text was obtained.
type ExtractionMethod string

const (
	MethodNativeText   ExtractionMethod = "native_text"
	MethodPrimaryOCR   ExtractionMethod = "primary_ocr"
	MethodSecondaryOCR ExtractionMethod = "secondary_ocr"
	MethodCachedText   ExtractionMethod = "cached"
)

// ContractType is a coarse classification of the intaken contract.
type ContractType string

const (
	ContractPurchase ContractType = "purchase_agreement"
	ContractLease    ContractType = "lease_agreement"
	ContractOffPlan  ContractType = "off_the_plan"
	ContractUnknown  ContractType = "unknown"
)
