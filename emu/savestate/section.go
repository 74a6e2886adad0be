package savestate

import "github.com/pkg/errors"

// Section describes how to restore one known child record.
type Section struct {
	Tag      string
	Version  uint16
	Required bool
	Load     func(d *Decoder) error
}

// Check validates the children of parent against sections without applying
// anything. Unknown essential records and version mismatches on known
// tags are rejected; unknown non-essential records are ignored. Children
// are checked in stored order before required sections, so an unknown
// essential record is reported ahead of a missing one.
func Check(parent *Record, sections []Section) error {
	seen := make(map[string]bool, len(sections))
	for _, c := range parent.Children {
		s := find(sections, c.Tag)
		if s == nil {
			if c.Essential() {
				return errors.Wrapf(ErrUnknownEssential, "tag %q", c.Tag)
			}
			continue
		}
		if c.Version != s.Version {
			return errors.Wrapf(ErrVersion, "tag %q version %d, want %d", c.Tag, c.Version, s.Version)
		}
		seen[s.Tag] = true
	}
	for _, s := range sections {
		if s.Required && !seen[s.Tag] {
			return errors.Wrapf(ErrMissing, "tag %q", s.Tag)
		}
	}
	return nil
}

// Apply checks then loads every known child of parent in stored order.
// A failure part way leaves earlier sections applied; callers that need
// all-or-nothing behavior restore a snapshot on error.
func Apply(parent *Record, sections []Section) error {
	if err := Check(parent, sections); err != nil {
		return err
	}
	for _, c := range parent.Children {
		s := find(sections, c.Tag)
		if s == nil {
			continue
		}
		d := c.Decoder()
		if err := s.Load(d); err != nil {
			return errors.Wrapf(err, "loading %q", c.Tag)
		}
		if err := d.Finish(); err != nil {
			return err
		}
	}
	return nil
}

func find(sections []Section, tag string) *Section {
	tag = string(padTag(tag))
	for i := range sections {
		if string(padTag(sections[i].Tag)) == tag {
			return &sections[i]
		}
	}
	return nil
}
