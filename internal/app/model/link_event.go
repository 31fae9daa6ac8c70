package model

import "time"

// LinkEventType names a lifecycle change on a link.
type LinkEventType string

const (
	LinkCreated LinkEventType = "created"
	LinkUpdated LinkEventType = "updated"
	LinkDeleted LinkEventType = "deleted"
)

// LinkEvent is published on every successful write and stored by the audit consumer.
type LinkEvent struct {
	ID         string        `json:"id" gorm:"primaryKey;type:uuid"`
	Type       LinkEventType `json:"type" gorm:"size:16;not null;index"`
	LinkID     string        `json:"linkId" gorm:"type:uuid;not null;index"`
	Slug       string        `json:"slug" gorm:"size:16"`
	OccurredAt time.Time     `json:"occurredAt" gorm:"not null"`
}

func (LinkEvent) TableName() string {
	return "link_events"
}

const (
	LinkStreamName     = "LINKS"
	LinkStreamSubjects = "links.events.>"
	LinkConsumerName   = "link-auditor"
	LinkStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)

// LinkEventSubject returns the subject an event of type t is published on.
func LinkEventSubject(t LinkEventType) string {
	return "links.events." + string(t)
}
