package validation

import (
	"strings"
	"testing"
)

func TestValidUsername(t *testing.T) {
	for _, v := range []string{"alice", "a", "bob_1", "zoë", "j.doe-2", strings.Repeat("x", 32)} {
		if !ValidUsername(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	for _, v := range []string{"", "bad space", "semi;colon", "<script>", strings.Repeat("x", 33)} {
		if ValidUsername(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidEmail(t *testing.T) {
	for _, v := range []string{"alice@x.com", "a.b+c@mail.example.org"} {
		if !ValidEmail(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	for _, v := range []string{"", "alice", "alice@", "@x.com", "a b@x.com", "alice@x", "alice@x.c", strings.Repeat("a", 250) + "@x.com"} {
		if ValidEmail(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidDisplayAndChatName(t *testing.T) {
	if !ValidDisplayName("") || !ValidDisplayName("Alice Liddell") {
		t.Fatal("display name should be valid")
	}
	if ValidDisplayName("bell\a") || ValidDisplayName(strings.Repeat("x", 65)) {
		t.Fatal("display name should be invalid")
	}
	if !ValidChatName("general") || !ValidChatName(" spaced ") {
		t.Fatal("chat name should be valid")
	}
	if ValidChatName("   ") || ValidChatName("line\nbreak") || ValidChatName(strings.Repeat("x", 101)) {
		t.Fatal("chat name should be invalid")
	}
}
