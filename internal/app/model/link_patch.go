package model

import "time"

// LinkPatch carries the fields of a partial update. Nil fields are left untouched.
type LinkPatch struct {
	OriginalURL *string
	Slug        *string
	ShortURL    *string
	ExpiresAt   *time.Time
	UTMSource   *string
	UTMMedium   *string
	UTMCampaign *string
	UTMTerm     *string
	UTMContent  *string
}

// Empty reports whether the patch changes nothing.
func (p LinkPatch) Empty() bool {
	return len(p.Columns()) == 0
}

// Columns maps the set fields to their column names.
func (p LinkPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.OriginalURL != nil {
		cols["original_url"] = *p.OriginalURL
	}
	if p.Slug != nil {
		cols["slug"] = *p.Slug
	}
	if p.ShortURL != nil {
		cols["short_url"] = *p.ShortURL
	}
	if p.ExpiresAt != nil {
		cols["expires_at"] = *p.ExpiresAt
	}
	if p.UTMSource != nil {
		cols["utm_source"] = *p.UTMSource
	}
	if p.UTMMedium != nil {
		cols["utm_medium"] = *p.UTMMedium
	}
	if p.UTMCampaign != nil {
		cols["utm_campaign"] = *p.UTMCampaign
	}
	if p.UTMTerm != nil {
		cols["utm_term"] = *p.UTMTerm
	}
	if p.UTMContent != nil {
		cols["utm_content"] = *p.UTMContent
	}
	return cols
}

// Apply returns a copy of link with the patch applied.
func (p LinkPatch) Apply(link Link) Link {
	if p.OriginalURL != nil {
		link = link.WithOriginalURL(*p.OriginalURL)
	}
	if p.Slug != nil {
		link.Slug = *p.Slug
	}
	if p.ShortURL != nil {
		link.ShortURL = *p.ShortURL
	}
	if p.ExpiresAt != nil {
		link = link.WithExpiresAt(p.ExpiresAt)
	}
	if p.UTMSource != nil {
		link.UTMSource = p.UTMSource
	}
	if p.UTMMedium != nil {
		link.UTMMedium = p.UTMMedium
	}
	if p.UTMCampaign != nil {
		link.UTMCampaign = p.UTMCampaign
	}
	if p.UTMTerm != nil {
		link.UTMTerm = p.UTMTerm
	}
	if p.UTMContent != nil {
		link.UTMContent = p.UTMContent
	}
	return link
}
