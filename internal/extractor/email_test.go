package extractor

import "testing"

func TestExtractEmail_SimplePlainTextMessage(t *testing.T) {
	raw := "Subject: Kündigung des Vertrags\r\n" +
		"From: anna@example.com\r\n" +
		"To: bernd@example.com, carla@example.com\r\n" +
		"Date: Mon, 1 Jan 2024 10:00:00 +0100\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Sehr geehrte Damen und Herren,\r\nhiermit kündige ich den Vertrag.\r\n"

	email, err := ExtractEmail([]byte(raw))
	if err != nil {
		t.Fatalf("ExtractEmail: %v", err)
	}
	if email.Subject != "Kündigung des Vertrags" {
		t.Errorf("Subject = %q", email.Subject)
	}
	if len(email.To) != 2 || email.To[0] != "bernd@example.com" || email.To[1] != "carla@example.com" {
		t.Errorf("To = %v, want 2 addresses", email.To)
	}
	if email.IsReply {
		t.Error("expected IsReply = false")
	}
	if email.BodyText == "" {
		t.Error("expected non-empty body text")
	}
}

func TestExtractEmail_DetectsReplyAndForward(t *testing.T) {
	replyRaw := "Subject: Re: Vertrag\r\nFrom: a@b.com\r\nContent-Type: text/plain\r\n\r\nbody\r\n"
	reply, err := ExtractEmail([]byte(replyRaw))
	if err != nil {
		t.Fatalf("ExtractEmail: %v", err)
	}
	if !reply.IsReply {
		t.Error("expected IsReply = true for a Re: subject")
	}

	fwdRaw := "Subject: Fwd: Vertrag\r\nFrom: a@b.com\r\nContent-Type: text/plain\r\n\r\nbody\r\n"
	fwd, err := ExtractEmail([]byte(fwdRaw))
	if err != nil {
		t.Fatalf("ExtractEmail: %v", err)
	}
	if !fwd.IsForward {
		t.Error("expected IsForward = true for a Fwd: subject")
	}
}

func TestCleanEmailText_StripsQuotesAndSignature(t *testing.T) {
	body := "Hier ist meine Antwort.\n" +
		"> ursprüngliche Nachricht\n" +
		"> zweite Zeile\n" +
		"weiterer Text vor der Signatur.\n" +
		"-- \n" +
		"Max Mustermann\n" +
		"Rechtsanwalt"

	got := cleanEmailText(body)
	want := "Hier ist meine Antwort.\nweiterer Text vor der Signatur."
	if got != want {
		t.Errorf("cleanEmailText() = %q, want %q", got, want)
	}
}

func TestCleanEmailText_TruncatesAtSentFromMarker(t *testing.T) {
	body := "Kurze Antwort vom Handy.\nSent from my iPhone"
	got := cleanEmailText(body)
	if got != "Kurze Antwort vom Handy." {
		t.Errorf("cleanEmailText() = %q", got)
	}
}

func TestStripHTMLTags(t *testing.T) {
	got := stripHTMLTags("<p>Hallo <b>Welt</b></p>")
	if got != "Hallo Welt" {
		t.Errorf("stripHTMLTags() = %q, want %q", got, "Hallo Welt")
	}
}

func TestSplitAddressList(t *testing.T) {
	got := splitAddressList("a@b.com,  c@d.com ,e@f.com")
	want := []string{"a@b.com", "c@d.com", "e@f.com"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if splitAddressList("") != nil {
		t.Error("expected nil for an empty header")
	}
}
