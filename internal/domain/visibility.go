package domain

type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityMemberOnly Visibility = "member_only"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityMemberOnly
}

type EventType string

const (
	EventTypeInternal EventType = "internal"
	EventTypeExternal EventType = "external"
)

func (t EventType) Valid() bool {
	return t == EventTypeInternal || t == EventTypeExternal
}
