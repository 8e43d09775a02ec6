package fleetpb

import (
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestCodecIsRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	if c == nil {
		t.Fatalf("Codec %q not registered", CodecName)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	c := jsonCodec{}
	in := &EvaluateRequest{
		RunnerID: "run-0",
		Seq:      7,
		Structure: &Structure{
			Positions: []float32{1, 2, 3},
			Species:   []string{"Cu"},
		},
	}

	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out EvaluateRequest
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.RunnerID != "run-0" || out.Seq != 7 {
		t.Errorf("Round trip lost identity: %+v", out)
	}
	if out.Structure == nil || out.Structure.NumAtoms() != 1 {
		t.Errorf("Round trip lost structure: %+v", out.Structure)
	}
}

func TestEmptyCellOmitted(t *testing.T) {
	c := jsonCodec{}
	data, err := c.Marshal(&Structure{Positions: []float32{0, 0, 0}, Species: []string{"H"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "" {
		t.Fatal("Empty payload")
	}
	for i := 0; i+3 < len(data); i++ {
		if string(data[i:i+4]) == `cell` {
			t.Error("Absent cell serialized anyway")
		}
	}
}
