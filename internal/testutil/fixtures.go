package testutil

import "github.com/loftysky/sgsession/core"

// Hierarchy populates r with one project, two sequences, two shots per
// sequence and one task per shot, mirroring the layout of a small
// production. Ids are stable so tests can address records directly:
// project 100, sequences 200/201, shots 300..303, tasks 400..403.
func Hierarchy(r *FakeRemote) {
	r.Add("Project", 100, core.Record{"name": "Test Project"})

	link := func(t string, id int64) map[string]any {
		return map[string]any{"type": t, "id": id}
	}

	r.Add("Sequence", 200, core.Record{"code": "AA", "project": link("Project", 100)})
	r.Add("Sequence", 201, core.Record{"code": "BB", "project": link("Project", 100)})

	shots := []struct {
		id  int64
		seq int64
	}{
		{300, 200}, {301, 200}, {302, 201}, {303, 201},
	}
	for i, s := range shots {
		r.Add("Shot", s.id, core.Record{
			"code":        []string{"AA_001", "AA_002", "BB_001", "BB_002"}[i],
			"sg_sequence": link("Sequence", s.seq),
			"project":     link("Project", 100),
		})
	}

	for i, shot := range []int64{300, 301, 302, 303} {
		r.Add("Task", int64(400+i), core.Record{
			"content": "Animate",
			"entity":  link("Shot", shot),
			"project": link("Project", 100),
		})
	}
}
