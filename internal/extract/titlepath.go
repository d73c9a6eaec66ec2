package extract

// TitleSeparator joins ancestor and descendant section titles.
const TitleSeparator = " - "

// titleState is the running title context of one walk. It must see
// sections in document order: a section's path may depend on an
// arbitrarily distant ancestor.
type titleState struct {
	header    string
	last      string
	lastLevel int
}

// next computes the title path of a section and advances the state.
//
//   - level 0 starts a new header.
//   - a deeper level chains onto the previous path, which becomes the
//     anchor for later siblings.
//   - a sibling or shallower level attaches to the current anchor.
func (s *titleState) next(level int, title string) string {
	var path string
	switch {
	case level == 0:
		path = title
		s.header = title
	case level > s.lastLevel:
		path = join(s.last, title)
		s.header = s.last
	default:
		path = join(s.header, title)
	}
	s.last = path
	s.lastLevel = level
	return path
}

// join keeps the separator even when base is empty, so a section met
// before any header reads " - Title" and cannot collide with a later
// header of the same name.
func join(base, title string) string {
	return base + TitleSeparator + title
}

// TitlePaths returns the path each section would be recorded under,
// without extracting any content. Sections without content are skipped
// and do not advance the state, exactly as in Walk.
func TitlePaths(sections []SectionHeading) []string {
	var st titleState
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		if !s.HasContent {
			out = append(out, "")
			continue
		}
		out = append(out, st.next(s.Level, s.Title))
	}
	return out
}

// SectionHeading is the part of a section that drives title paths.
type SectionHeading struct {
	Level      int
	Title      string
	HasContent bool
}
