package analysis

// NonDominated returns the IDs of options no other option dominates.
// An option is dominated if another option scores >= on every criterion and
// strictly higher on at least one. Missing scores count as zero.
// O(n²·m) pairwise check, fine for decision-sized inputs.
func NonDominated(d *Decision) []string {
	frontier := []string{}
	for i := range d.Options {
		dominated := false
		for j := range d.Options {
			if i == j {
				continue
			}
			if dominates(d.Criteria, d.Options[j], d.Options[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, d.Options[i].ID)
		}
	}
	return frontier
}

// dominates returns true if a dominates b.
func dominates(criteria []Criterion, a, b Option) bool {
	strictly := false
	for _, c := range criteria {
		sa, sb := a.Scores[c.ID], b.Scores[c.ID]
		if sa < sb {
			return false
		}
		if sa > sb {
			strictly = true
		}
	}
	return strictly
}
