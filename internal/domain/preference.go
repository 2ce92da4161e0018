package domain

// Preference is a recipient's subscription state and sentiment filter.
type Preference struct {
	RecipientID int64      `json:"recipient_id"`
	Subscribed  bool       `json:"subscribed"`
	Sentiments  []Category `json:"sentiments"`
}

// DefaultPreference is what a recipient gets on first contact.
func DefaultPreference(id int64) Preference {
	return Preference{
		RecipientID: id,
		Subscribed:  true,
		Sentiments:  AllCategories(),
	}
}

// Wants reports whether the filter includes the category.
func (p Preference) Wants(c Category) bool {
	for _, s := range p.Sentiments {
		if s == c {
			return true
		}
	}
	return false
}

// Accepts reports whether an article with the given category should be
// delivered to this recipient.
func (p Preference) Accepts(c Category) bool {
	return p.Subscribed && p.Wants(c)
}

// Clone returns a copy that does not share the filter slice.
func (p Preference) Clone() Preference {
	out := p
	out.Sentiments = append([]Category(nil), p.Sentiments...)
	return out
}

// Toggle flips the category in the filter and keeps display order. When the
// filter would become empty it is reset to every category and reset is true.
func (p *Preference) Toggle(c Category) (reset bool) {
	next := make([]Category, 0, len(AllCategories()))
	wanted := !p.Wants(c)
	for _, cat := range AllCategories() {
		if cat == c {
			if wanted {
				next = append(next, cat)
			}
			continue
		}
		if p.Wants(cat) {
			next = append(next, cat)
		}
	}
	if len(next) == 0 {
		p.Sentiments = AllCategories()
		return true
	}
	p.Sentiments = next
	return false
}

// Normalize repairs a filter loaded from storage: unknown and duplicate
// entries are dropped and an empty result becomes the full set.
func (p *Preference) Normalize() {
	next := make([]Category, 0, len(AllCategories()))
	for _, cat := range AllCategories() {
		if p.Wants(cat) {
			next = append(next, cat)
		}
	}
	if len(next) == 0 {
		next = AllCategories()
	}
	p.Sentiments = next
}
