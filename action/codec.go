package action

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal encodes a as a JSON object tagged with "_type".
func Marshal(a Action) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil action", ErrInvalidAction)
	}
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", a.Kind(), err)
	}
	tag, err := json.Marshal(a.Kind())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"_type":`)
	buf.Write(tag)
	if rest := bytes.TrimPrefix(body, []byte("{")); !bytes.Equal(rest, []byte("}")) {
		buf.WriteByte(',')
		buf.Write(rest)
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a tagged action. Unknown tags and unknown fields are rejected.
func Unmarshal(data []byte) (Action, error) {
	var tag struct {
		Type Kind `json:"_type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	switch tag.Type {
	case KindCreate:
		return decode[Create](data)
	case KindDelete:
		return decode[Delete](data)
	case KindMove:
		return decode[Move](data)
	case KindUpdate:
		return decode[Update](data)
	case KindAlign:
		return decode[Align](data)
	case KindDistribute:
		return decode[Distribute](data)
	case KindStack:
		return decode[Stack](data)
	case KindRotate:
		return decode[Rotate](data)
	case KindResize:
		return decode[Resize](data)
	case KindBringToFront:
		return decode[BringToFront](data)
	case KindSendToBack:
		return decode[SendToBack](data)
	case KindPlace:
		return decode[Place](data)
	case KindPen:
		return decode[Pen](data)
	case KindClear:
		return decode[Clear](data)
	case KindSetView:
		return decode[SetView](data)
	}
	return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, tag.Type)
}

func decode[T Action](data []byte) (Action, error) {
	var v T
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAction, v.Kind(), err)
	}
	delete(fields, "_type")
	stripped, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(stripped))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAction, v.Kind(), err)
	}
	return v, nil
}
