package models

// Option is one selectable entry offered to the user: a display name and the
// URL fragment behind it.
type Option struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Options is an ordered, name-unique option set. Put keeps the position of the
// first occurrence of a name and the link of the last one.
type Options []Option

func (o *Options) Put(name, link string) {
	for i := range *o {
		if (*o)[i].Name == name {
			(*o)[i].Link = link
			return
		}
	}
	*o = append(*o, Option{Name: name, Link: link})
}

// Lookup is an exact, case-sensitive match on the display name.
func (o Options) Lookup(name string) (string, bool) {
	for _, opt := range o {
		if opt.Name == name {
			return opt.Link, true
		}
	}
	return "", false
}

func (o Options) Names() []string {
	names := make([]string, 0, len(o))
	for _, opt := range o {
		names = append(names, opt.Name)
	}
	return names
}

func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	return append(Options(nil), o...)
}

// Teacher is a record returned by the site's teacher search.
type Teacher struct {
	FIO string `json:"fio"`
	ID  string `json:"id"`
}

// Chat tracks where the bot is a member.
type Chat struct {
	ChatID    int64  `db:"chat_id"`
	Type      string `db:"type"`
	Title     string `db:"title"`
	Status    string `db:"status"` // member, administrator, left, kicked...
	UpdatedAt int64  `db:"updated_at"`
}
