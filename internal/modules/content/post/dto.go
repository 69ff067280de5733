package post

// CreatePostDTO is the request body for creating a post.
type CreatePostDTO struct {
	Title   string `json:"title"   binding:"required"`
	Date    string `json:"date"`
	Content string `json:"content" binding:"required"`
}

// UpdatePostDTO is the request body for rewriting a post. The slug is the
// identity and never changes, even when the title does.
type UpdatePostDTO struct {
	Slug    string `json:"slug"    binding:"required"`
	Title   string `json:"title"   binding:"required"`
	Date    string `json:"date"`
	Content string `json:"content" binding:"required"`
}

// DeletePostDTO is the request body for deleting a post.
type DeletePostDTO struct {
	Slug string `json:"slug" binding:"required"`
}

// Summary is one entry of the post index.
type Summary struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Slug    string `json:"slug"`
	Excerpt string `json:"-"`
}

// Detail is a single parsed post.
type Detail struct {
	Slug    string
	Title   string
	Date    string
	Content string
	Meta    map[string]any
}

// toResponse flattens the front-matter next to the well-known fields, which
// take precedence over same-named metadata keys.
func toResponse(d *Detail) map[string]any {
	out := make(map[string]any, len(d.Meta)+4)
	for k, v := range d.Meta {
		out[k] = v
	}
	out["slug"] = d.Slug
	out["title"] = d.Title
	out["date"] = d.Date
	out["content"] = d.Content
	return out
}
