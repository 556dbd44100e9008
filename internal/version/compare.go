package version

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than
// b, following PEP-440 ordering in full: epoch, then release (missing
// trailing segments treated as zero), then a combined pre/dev tier that
// places a pure dev release before any pre-release of the same release and
// a final release after all of its own pre-releases, then post-release,
// then dev-release, then local version.
//
// Neither a nor b may be a Wildcard version; Compare is for ordered
// comparisons, not wildcard equality.
func Compare(a, b *Version) int {
	if c := compareInt(a.Epoch, b.Epoch); c != 0 {
		return c
	}
	if c := compareRelease(a.Release, b.Release); c != 0 {
		return c
	}
	if c := comparePreTier(a, b); c != 0 {
		return c
	}
	if c := comparePost(a.Post, b.Post); c != 0 {
		return c
	}
	if c := compareDev(a.Dev, b.Dev); c != 0 {
		return c
	}
	return compareLocal(a.Local, b.Local)
}

// Equal reports whether a and b compare equal under Compare.
func Equal(a, b *Version) bool { return Compare(a, b) == 0 }

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareRelease(a, b []uint32) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var x, y uint32
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

// preTier ranks a version for ordering relative to pre-releases:
//
//	-1: a pure dev release (no pre, no post) — sorts before any pre-release
//	 0: has an explicit pre-release — ranked by label then number
//	 1: no pre-release at all — sorts after all pre-releases of the same release
var preLabelRank = map[PreLabel]int{PreAlpha: 0, PreBeta: 1, PreRC: 2}

func comparePreTier(a, b *Version) int {
	ta, la, na := preTierOf(a)
	tb, lb, nb := preTierOf(b)
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}
	if ta != 0 {
		return 0
	}
	if c := compareInt(la, lb); c != 0 {
		return c
	}
	return compareInt(na, nb)
}

func preTierOf(v *Version) (tier, label, num int) {
	if v.Pre == nil && v.Post == nil && v.Dev != nil {
		return -1, 0, 0
	}
	if v.Pre == nil {
		return 1, 0, 0
	}
	return 0, preLabelRank[v.Pre.Label], v.Pre.Num
}

func comparePost(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return compareInt(*a, *b)
	}
}

func compareDev(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return compareInt(*a, *b)
	}
}

func compareLocal(a, b []LocalSegment) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if i >= len(a) {
			return -1 // a is a prefix of b: a sorts lower
		}
		if i >= len(b) {
			return 1
		}
		if c := compareLocalSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareLocalSegment(a, b LocalSegment) int {
	if a.Numeric != b.Numeric {
		// A numeric segment always compares greater than an alphanumeric one.
		if a.Numeric {
			return 1
		}
		return -1
	}
	if a.Numeric {
		return compareInt(a.Num, b.Num)
	}
	switch {
	case a.Text < b.Text:
		return -1
	case a.Text > b.Text:
		return 1
	default:
		return 0
	}
}
