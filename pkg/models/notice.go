package models

// NoticeVariant is the presentation class of a user-facing notification
type NoticeVariant string

const (
	NoticeVariantDefault     NoticeVariant = "default"
	NoticeVariantDestructive NoticeVariant = "destructive"
)

// Notice is a point-in-time user notification: a short title plus a
// description. Notices are not persisted and are not remembered across
// sessions.
type Notice struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Variant     NoticeVariant `json:"variant"`
}

func Info(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: NoticeVariantDefault}
}

func Warning(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: NoticeVariantDestructive}
}
