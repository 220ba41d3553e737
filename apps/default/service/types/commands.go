package types

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// ValidatePin checks the format of a PIN, not its value.
func ValidatePin(pin string) error {
	if !pinPattern.MatchString(pin) {
		return Validation("pin must be exactly 4 digits")
	}
	return nil
}

// MoveCommand is one of the per-action requests accepted by ApplyMove.
type MoveCommand interface {
	Action() Action
	Common() *MoveCommon
}

// PinGated is implemented by commands that must carry the actor's PIN.
type PinGated interface {
	Pin() string
}

// MoveCommon holds the fields every move carries.
type MoveCommon struct {
	FileID          string
	Remarks         string
	ExpectedVersion int64
	Attachments     []*Attachment
}

func (c *MoveCommon) Common() *MoveCommon {
	return c
}

type ForwardCommand struct {
	MoveCommon
	ReceiverID string
}

func (c *ForwardCommand) Action() Action { return ActionForward }

type RevertCommand struct {
	MoveCommon
}

func (c *RevertCommand) Action() Action { return ActionRevert }

type VerifyCommand struct {
	MoveCommon
	PIN string
}

func (c *VerifyCommand) Action() Action { return ActionVerify }
func (c *VerifyCommand) Pin() string    { return c.PIN }

type ApproveCommand struct {
	MoveCommon
	PIN string
}

func (c *ApproveCommand) Action() Action { return ActionApprove }
func (c *ApproveCommand) Pin() string    { return c.PIN }

type RejectCommand struct {
	MoveCommon
	PIN string
}

func (c *RejectCommand) Action() Action { return ActionReject }
func (c *RejectCommand) Pin() string    { return c.PIN }

// ValidateMoveCommand checks a command's fields independently of any stored state.
func ValidateMoveCommand(cmd MoveCommand) error {
	if cmd == nil {
		return Validation("move command is required")
	}
	common := cmd.Common()
	if strings.TrimSpace(common.FileID) == "" {
		return Validation("file id is required")
	}
	if strings.TrimSpace(common.Remarks) == "" {
		return Validation("remarks are required for %s", cmd.Action())
	}
	if common.ExpectedVersion < 1 {
		return Validation("expected_version must be a positive integer")
	}

	switch c := cmd.(type) {
	case *ForwardCommand:
		if strings.TrimSpace(c.ReceiverID) == "" {
			return Validation("receiver_id is required for FORWARD")
		}
	case PinGated:
		return ValidatePin(c.Pin())
	}
	return nil
}

type moveWire struct {
	Action          Action  `json:"action"`
	Remarks         *string `json:"remarks"`
	ExpectedVersion *int64  `json:"expected_version"`
}

type forwardWire struct {
	moveWire
	ReceiverID *string `json:"receiver_id"`
}

type pinWire struct {
	moveWire
	Pin *string `json:"pin"`
}

func (w *moveWire) common(fileID string) (MoveCommon, error) {
	if w.Remarks == nil {
		return MoveCommon{}, Validation("remarks is missing")
	}
	if w.ExpectedVersion == nil {
		return MoveCommon{}, Validation("expected_version is missing")
	}
	return MoveCommon{FileID: fileID, Remarks: *w.Remarks, ExpectedVersion: *w.ExpectedVersion}, nil
}

func strictDecode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &Error{Kind: KindValidation, Message: "malformed move request", Err: err}
	}
	if dec.More() {
		return Validation("unexpected data after move request")
	}
	return nil
}

// DecodeMoveCommand parses a JSON move request into the variant selected by
// its action field. Unknown fields, fields foreign to the action and missing
// required fields are all rejected.
func DecodeMoveCommand(fileID string, data []byte) (MoveCommand, error) {
	var envelope struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &Error{Kind: KindValidation, Message: "malformed move request", Err: err}
	}

	var cmd MoveCommand
	switch envelope.Action {
	case ActionForward:
		var w forwardWire
		if err := strictDecode(data, &w); err != nil {
			return nil, err
		}
		common, err := w.common(fileID)
		if err != nil {
			return nil, err
		}
		if w.ReceiverID == nil {
			return nil, Validation("receiver_id is missing")
		}
		cmd = &ForwardCommand{MoveCommon: common, ReceiverID: *w.ReceiverID}

	case ActionRevert:
		var w moveWire
		if err := strictDecode(data, &w); err != nil {
			return nil, err
		}
		common, err := w.common(fileID)
		if err != nil {
			return nil, err
		}
		cmd = &RevertCommand{MoveCommon: common}

	case ActionVerify, ActionApprove, ActionReject:
		var w pinWire
		if err := strictDecode(data, &w); err != nil {
			return nil, err
		}
		common, err := w.common(fileID)
		if err != nil {
			return nil, err
		}
		if w.Pin == nil {
			return nil, Validation("pin is missing")
		}
		switch envelope.Action {
		case ActionVerify:
			cmd = &VerifyCommand{MoveCommon: common, PIN: *w.Pin}
		case ActionApprove:
			cmd = &ApproveCommand{MoveCommon: common, PIN: *w.Pin}
		default:
			cmd = &RejectCommand{MoveCommon: common, PIN: *w.Pin}
		}

	case "":
		return nil, Validation("action is missing")
	default:
		return nil, Validation("unsupported action %q", envelope.Action)
	}

	if err := ValidateMoveCommand(cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}
