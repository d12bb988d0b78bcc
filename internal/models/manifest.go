package models

// Manifest mirrors the YAML layout of manifests/primsync.yml.
type Manifest struct {
	APIs     map[string]APIEntry `yaml:"apis"`
	Datasets []DatasetEntry      `yaml:"datasets"`
}

type APIEntry struct {
	Type            string `yaml:"type"` // "direct" | "portal_page"
	SpecURL         string `yaml:"spec_url,omitempty"`
	PageURL         string `yaml:"page_url,omitempty"`
	SpecURLOverride string `yaml:"spec_url_override,omitempty"`
	Auth            string `yaml:"auth,omitempty"` // "prim_token" to send the bearer token
}

type DatasetEntry struct {
	DatasetID    string `yaml:"dataset_id"`
	PortalBase   string `yaml:"portal_base"`
	ExportFormat string `yaml:"export_format,omitempty"` // default "jsonl"
}
