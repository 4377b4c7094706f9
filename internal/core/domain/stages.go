package domain

// MergePolicy defines how a stage combines its adapters' outputs.
type MergePolicy string

const (
	// MergeUnion deduplicates the union of all adapter record sets.
	MergeUnion MergePolicy = "union"

	// MergePassthrough keeps the single adapter's records as-is (still
	// canonically sorted). Used by single-adapter stages.
	MergePassthrough MergePolicy = "passthrough"
)

// StageDef declares one step of the fixed pipeline DAG: its predecessor
// stages and the tool adapters it fans out to.
type StageDef struct {
	Name        string
	Description string
	Requires    []string
	Adapters    []string
	Merge       MergePolicy
}

// AdapterCount returns the number of adapters the stage invokes.
func (s StageDef) AdapterCount() int {
	return len(s.Adapters)
}

// DefaultPipeline returns the fixed recon pipeline topology. The DAG is
// statically known; execution order is computed by topological sort, not by
// the slice order here.
func DefaultPipeline() []StageDef {
	return []StageDef{
		{
			Name:        "subdomains",
			Description: "Subdomain discovery",
			Adapters:    []string{"subfinder", "assetfinder", "amass"},
			Merge:       MergeUnion,
		},
		{
			Name:        "resolve",
			Description: "DNS resolution",
			Requires:    []string{"subdomains"},
			Adapters:    []string{"dnsx"},
			Merge:       MergePassthrough,
		},
		{
			Name:        "probe",
			Description: "HTTP probing",
			Requires:    []string{"resolve"},
			Adapters:    []string{"httpx"},
			Merge:       MergePassthrough,
		},
		{
			Name:        "ports",
			Description: "Port scanning",
			Requires:    []string{"resolve"},
			Adapters:    []string{"naabu"},
			Merge:       MergePassthrough,
		},
		{
			Name:        "tech",
			Description: "Technology fingerprinting",
			Requires:    []string{"probe"},
			Adapters:    []string{"whatweb"},
			Merge:       MergePassthrough,
		},
		{
			Name:        "urls",
			Description: "URL discovery",
			Requires:    []string{"resolve"},
			Adapters:    []string{"gau", "waybackurls", "katana"},
			Merge:       MergeUnion,
		},
		{
			Name:        "js",
			Description: "JavaScript recon",
			Requires:    []string{"probe"},
			Adapters:    []string{"subjs"},
			Merge:       MergePassthrough,
		},
		{
			Name:        "params",
			Description: "Parameter mining",
			Requires:    []string{"resolve", "probe"},
			Adapters:    []string{"paramspider", "arjun"},
			Merge:       MergeUnion,
		},
		{
			Name:        "vulns",
			Description: "Vulnerability scanning",
			Requires:    []string{"probe"},
			Adapters:    []string{"nuclei"},
			Merge:       MergePassthrough,
		},
	}
}

// FindStage returns the stage definition with the given name.
func FindStage(pipeline []StageDef, name string) (StageDef, bool) {
	for _, s := range pipeline {
		if s.Name == name {
			return s, true
		}
	}
	return StageDef{}, false
}

// StageNames returns the names of all stages in declaration order.
func StageNames(pipeline []StageDef) []string {
	names := make([]string, 0, len(pipeline))
	for _, s := range pipeline {
		names = append(names, s.Name)
	}
	return names
}
