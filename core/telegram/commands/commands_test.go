package commands

import "testing"

func TestHelp(t *testing.T) {
	cmd := Command{Description: "сменить статус заявки", Usage: "<id> <status>"}
	if got := cmd.Help("/lead"); got != "/lead <id> <status> - сменить статус заявки" {
		t.Fatalf("help = %q", got)
	}
	if got := (Command{}).Help("/start"); got != "/start" {
		t.Fatalf("bare help = %q", got)
	}
}
