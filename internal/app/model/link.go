package model

import "time"

// Link describes one shortened URL mapping stored in Postgres.
//
// Link is handled as a value: the With* helpers return modified copies and every
// persisted change goes through the repository, which hands back the full record.
type Link struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid"`
	Slug        string     `json:"slug" gorm:"size:16;not null;uniqueIndex"`
	OriginalURL string     `json:"originalUrl" gorm:"column:original_url;type:text;not null"`
	ShortURL    string     `json:"shortUrl" gorm:"column:short_url;type:text;not null"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" gorm:"index"`
	ClickCount  int64      `json:"clickCount" gorm:"not null;default:0"`
	UTMSource   *string    `json:"utmSource,omitempty" gorm:"column:utm_source;size:255"`
	UTMMedium   *string    `json:"utmMedium,omitempty" gorm:"column:utm_medium;size:255"`
	UTMCampaign *string    `json:"utmCampaign,omitempty" gorm:"column:utm_campaign;size:255"`
	UTMTerm     *string    `json:"utmTerm,omitempty" gorm:"column:utm_term;size:255"`
	UTMContent  *string    `json:"utmContent,omitempty" gorm:"column:utm_content;size:255"`
}

// TableName keeps the table name used by existing deployments.
func (Link) TableName() string {
	return "short_urls"
}

// UTM groups the optional campaign attribution fields.
type UTM struct {
	Source   *string
	Medium   *string
	Campaign *string
	Term     *string
	Content  *string
}

// ShortURLFor joins the short domain prefix and slug.
func ShortURLFor(base, slug string) string {
	return base + slug
}

// IsExpired reports whether the link carries an expiry that lies before now.
// Expiry is informational; no component refuses or removes expired links.
func (l Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// WithSlug returns a copy with slug and the derived short URL replaced.
func (l Link) WithSlug(base, slug string) Link {
	l.Slug = slug
	l.ShortURL = ShortURLFor(base, slug)
	return l
}

func (l Link) WithOriginalURL(url string) Link {
	l.OriginalURL = url
	return l
}

func (l Link) WithExpiresAt(expiresAt *time.Time) Link {
	l.ExpiresAt = copyTime(expiresAt)
	return l
}

func (l Link) WithUTM(utm UTM) Link {
	l.UTMSource = utm.Source
	l.UTMMedium = utm.Medium
	l.UTMCampaign = utm.Campaign
	l.UTMTerm = utm.Term
	l.UTMContent = utm.Content
	return l
}

// UTM returns the attribution fields of the link.
func (l Link) UTM() UTM {
	return UTM{
		Source:   l.UTMSource,
		Medium:   l.UTMMedium,
		Campaign: l.UTMCampaign,
		Term:     l.UTMTerm,
		Content:  l.UTMContent,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
