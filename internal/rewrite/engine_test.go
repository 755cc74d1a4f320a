package rewrite

import "testing"

func TestApply_EmptyTagSetNoOp(t *testing.T) {
	for _, in := range []string{"", "some text", "#already tagged"} {
		out, changed := Apply(in, nil)
		if changed {
			t.Errorf("Apply(%q, nil) reported change", in)
		}
		if out != in {
			t.Errorf("Apply(%q, nil) = %q", in, out)
		}
	}
}

func TestApply_MultipleTags(t *testing.T) {
	tags := []string{"#project", "#meeting"}
	out, changed := Apply("project notes from the meeting", tags)
	if !changed {
		t.Fatal("expected change")
	}
	if out != "#project notes from the #meeting" {
		t.Errorf("out = %q", out)
	}
}

func TestApply_Idempotent(t *testing.T) {
	tags := []string{"#project", "#c++", "#go"}
	in := "Project uses go and c++ daily. See #project."

	once, changed := Apply(in, tags)
	if !changed {
		t.Fatal("first pass should change")
	}
	twice, changed := Apply(once, tags)
	if changed {
		t.Error("second pass must be a no-op")
	}
	if twice != once {
		t.Errorf("second pass altered text:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestApply_NoDoubleTagging(t *testing.T) {
	in := "tracked in #project"
	out, changed := Apply(in, []string{"#project"})
	if changed {
		t.Fatal("no change expected")
	}
	if out != in {
		t.Errorf("text not byte-identical: %q", out)
	}
}

func TestApply_MalformedTagSkipped(t *testing.T) {
	in := "any text at all"
	out, changed := Apply(in, []string{"#", ""})
	if changed || out != in {
		t.Errorf("malformed tags must be no-ops, got %q (changed=%v)", out, changed)
	}
}

func TestApply_ChangedOnlyWhenMatched(t *testing.T) {
	_, changed := Apply("nothing relevant here", []string{"#project"})
	if changed {
		t.Error("changed must be false without matches")
	}
}
