package models

// Kind classifies what a resource is, which decides how it is fetched and
// which pipeline step owns it.
type Kind string

const (
	KindSpec    Kind = "spec"
	KindDataset Kind = "dataset"
)

// SourceType says how the fetch URL for a spec is obtained.
type SourceType string

const (
	// SourceDirect means SpecURL points straight at the document.
	SourceDirect SourceType = "direct"
	// SourcePortalPage means PageURL points at a portal page whose HTML embeds
	// the real spec URL; it has to be resolved before fetching.
	SourcePortalPage SourceType = "portal_page"
)

// Resource is one remote document to keep in sync. Immutable once built from
// the manifest; the ID doubles as the artifact filename stem.
type Resource struct {
	ID   string
	Kind Kind

	// Spec resources.
	Source          SourceType
	SpecURL         string
	PageURL         string
	SpecURLOverride string
	Auth            bool // send the portal bearer token

	// Dataset resources.
	PortalBase   string
	DatasetID    string
	ExportFormat string
}

// FileName returns the on-disk artifact name for this resource.
func (r Resource) FileName() string {
	switch r.Kind {
	case KindDataset:
		return r.ID + "." + r.ExportFormat
	default:
		return r.ID + ".json"
	}
}
