package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeController records every controller call.
type fakeController struct {
	statuses   []string
	captions   []string
	terminal   []string
	charSeqs   []string
	recordings int

	captureErr   error
	recordingErr error
}

func (f *fakeController) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return []byte("png"), nil
}

func (f *fakeController) QuickStatus(ctx context.Context) (string, error) {
	if f.captureErr != nil {
		return "", f.captureErr
	}
	return "📊 Current Status:\n• Activity: idle", nil
}

func (f *fakeController) SendStatus(text string) {
	f.statuses = append(f.statuses, text)
}

func (f *fakeController) SendImage(png []byte, caption string) {
	f.captions = append(f.captions, caption)
}

func (f *fakeController) SendCharSequence(ctx context.Context, seq string) error {
	f.charSeqs = append(f.charSeqs, seq)
	return nil
}

func (f *fakeController) SendToTerminal(ctx context.Context, text string) error {
	f.terminal = append(f.terminal, text)
	return nil
}

func (f *fakeController) SendRecording(ctx context.Context) (int64, error) {
	if f.recordingErr != nil {
		return 0, f.recordingErr
	}
	f.recordings++
	return 2048, nil
}

func (f *fakeController) RecordingStatus() string {
	return "🎬 Recording active"
}

func TestDispatchScreenshot(t *testing.T) {
	for _, cmd := range []string{"/s", "/sc", "/screenshot", "/SCREENSHOT", "  /s  "} {
		ctrl := &fakeController{}
		if !NewRegistry().Dispatch(context.Background(), ctrl, cmd) {
			t.Errorf("%q not claimed", cmd)
			continue
		}
		if len(ctrl.captions) != 1 {
			t.Errorf("%q: captions = %v, want one screenshot", cmd, ctrl.captions)
		}
	}
}

func TestDispatchScreenshotFailure(t *testing.T) {
	ctrl := &fakeController{captureErr: errors.New("window gone")}
	if !NewRegistry().Dispatch(context.Background(), ctrl, "/s") {
		t.Fatal("/s not claimed")
	}
	if len(ctrl.captions) != 0 {
		t.Error("no image should be sent on capture failure")
	}
	if len(ctrl.statuses) != 1 || !strings.Contains(ctrl.statuses[0], "Failed") {
		t.Errorf("statuses = %v, want a failure notice", ctrl.statuses)
	}
}

func TestDispatchRecording(t *testing.T) {
	ctrl := &fakeController{}
	if !NewRegistry().Dispatch(context.Background(), ctrl, "/rec") {
		t.Fatal("/rec not claimed")
	}
	if ctrl.recordings != 1 {
		t.Errorf("recordings sent = %d, want 1", ctrl.recordings)
	}
	if len(ctrl.statuses) != 1 || !strings.Contains(ctrl.statuses[0], "2048 bytes") {
		t.Errorf("statuses = %v", ctrl.statuses)
	}
}

func TestDispatchRecordingUnavailable(t *testing.T) {
	ctrl := &fakeController{recordingErr: errors.New("no buffer")}
	if !NewRegistry().Dispatch(context.Background(), ctrl, "/r") {
		t.Fatal("/r not claimed")
	}
	if len(ctrl.statuses) != 1 || !strings.Contains(ctrl.statuses[0], "No recording available") {
		t.Errorf("statuses = %v", ctrl.statuses)
	}
}

func TestDispatchRecordingStatus(t *testing.T) {
	ctrl := &fakeController{}
	if !NewRegistry().Dispatch(context.Background(), ctrl, "/rs") {
		t.Fatal("/rs not claimed")
	}
	if len(ctrl.statuses) != 1 || ctrl.statuses[0] != "🎬 Recording active" {
		t.Errorf("statuses = %v", ctrl.statuses)
	}
}

func TestDispatchStatus(t *testing.T) {
	ctrl := &fakeController{}
	if !NewRegistry().Dispatch(context.Background(), ctrl, "/status") {
		t.Fatal("/status not claimed")
	}
	if len(ctrl.statuses) != 1 || !strings.Contains(ctrl.statuses[0], "Current Status") {
		t.Errorf("statuses = %v", ctrl.statuses)
	}
}

func TestDispatchHelp(t *testing.T) {
	ctrl := &fakeController{}
	if !NewRegistry().Dispatch(context.Background(), ctrl, "/help") {
		t.Fatal("/help not claimed")
	}
	if len(ctrl.statuses) != 1 || !strings.Contains(ctrl.statuses[0], "/screenshot") {
		t.Errorf("help text missing command listing: %v", ctrl.statuses)
	}
}

func TestDispatchCharSequence(t *testing.T) {
	ctrl := &fakeController{}
	if !NewRegistry().Dispatch(context.Background(), ctrl, "/c vv>e") {
		t.Fatal("/c not claimed")
	}
	if len(ctrl.charSeqs) != 1 || ctrl.charSeqs[0] != "vv>e" {
		t.Errorf("charSeqs = %v", ctrl.charSeqs)
	}
	if len(ctrl.captions) != 1 {
		t.Errorf("captions = %v, want confirmation screenshot", ctrl.captions)
	}
}

func TestDispatchCharRequiresArguments(t *testing.T) {
	ctrl := &fakeController{}
	// Bare "/c" is not the char command and must fall through unclaimed.
	if NewRegistry().Dispatch(context.Background(), ctrl, "/c") {
		t.Error("bare /c should not be claimed")
	}
}

func TestDispatchDoubleSlash(t *testing.T) {
	ctrl := &fakeController{}
	if !NewRegistry().Dispatch(context.Background(), ctrl, "//init") {
		t.Fatal("//init not claimed")
	}
	if len(ctrl.terminal) != 1 || ctrl.terminal[0] != "/init" {
		t.Errorf("terminal = %v, want one /init delivery", ctrl.terminal)
	}
}

func TestDispatchFallsThrough(t *testing.T) {
	ctrl := &fakeController{}
	for _, text := range []string{"write a hello world script", "yes", "2", "/unknown"} {
		if NewRegistry().Dispatch(context.Background(), ctrl, text) {
			t.Errorf("%q should fall through to command dispatch", text)
		}
	}
	if len(ctrl.statuses)+len(ctrl.captions)+len(ctrl.terminal) != 0 {
		t.Error("fall-through must not touch the controller")
	}
}
