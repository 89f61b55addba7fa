package cmdfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteSendRecordMatchesSpecShape(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "C.hostd0001")
	temp := filepath.Join(dir, "TM.1.1")

	records := []Record{
		Send{From: "/home/u/a", To: "/tmp/a", User: "u", Opts: "c", Temp: "D.0", Mode: "0666", Notify: ""},
	}

	if err := Write(temp, final, records); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(final)
	if err != nil {
		t.Fatal(err)
	}
	want := "S /home/u/a /tmp/a u c D.0 0666 \"\"\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("temp file should be gone after rename")
	}
}

func TestWriteStagedCopyRecord(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "C.hostd0002")
	temp := filepath.Join(dir, "TM.1.2")

	records := []Record{
		Send{From: "/home/u/a", To: "D.hostd0001", User: "u", Opts: "C", Temp: "D.hostd0001", Mode: "0666", Notify: ""},
	}
	if err := Write(temp, final, records); err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(final)
	want := "S /home/u/a D.hostd0001 u C D.hostd0001 0666 \"\"\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAppendPreservesExistingRecords(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "C.hostn0001")
	temp1 := filepath.Join(dir, "TM.1.1")
	temp2 := filepath.Join(dir, "TM.1.2")

	first := []Record{Send{From: "/tmp/msg", To: "D.hostn0001", User: "u", Opts: "C", Temp: "D.hostn0001", Mode: "0600"}}
	if err := Write(temp1, final, first); err != nil {
		t.Fatal(err)
	}

	second := []Record{Send{From: "X.hostn0001", To: "X.hostn0001", User: "u", Opts: "C", Temp: "X.hostn0001", Mode: "0666"}}
	if err := Append(final, temp2, second); err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(final)
	want := "S /tmp/msg D.hostn0001 u C D.hostn0001 0600 \"\"\n" +
		"S X.hostn0001 X.hostn0001 u C X.hostn0001 0666 \"\"\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReceiveRecordShape(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "C.hostr0001")
	temp := filepath.Join(dir, "TM.1.1")

	records := []Record{Receive{From: "/remote/path", To: "/local/path", User: "u", Opts: ""}}
	if err := Write(temp, final, records); err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(final)
	want := "R /remote/path /local/path u \"\"\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
