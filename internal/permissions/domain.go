package permissions

// Permission represents an atomic capability. The slug is the stable policy
// identifier; name and description are cosmetic and may change freely.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}
