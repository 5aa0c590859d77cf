package huffman

import (
	"errors"
	"testing"
)

func TestModelTrainEncode(t *testing.T) {
	sample := loadTestData(t, "sample.txt")
	model, err := TrainModel(sample, WithTableCodec(TableCodecRaw))
	if err != nil {
		t.Fatal(err)
	}
	if !model.Trained() {
		t.Fatal("expected trained model")
	}

	for _, text := range []string{"This is a test", "compress this text", "", "s"} {
		archive, err := model.Encode(text)
		if err != nil {
			t.Fatalf("Encode(%q): %v", text, err)
		}
		if archive.Table.Len() != model.Table().Len() && text != "" {
			t.Errorf("archive table has %d codes, model has %d", archive.Table.Len(), model.Table().Len())
		}

		var loaded Archive
		if err := loaded.UnmarshalBinary(mustMarshal(t, archive)); err != nil {
			t.Fatal(err)
		}
		got, err := loaded.DecodeString()
		if err != nil {
			t.Fatal(err)
		}
		if got != text {
			t.Errorf("expected %q, got %q", text, got)
		}

		direct, err := model.Decode(archive)
		if err != nil {
			t.Fatal(err)
		}
		if string(direct) != text {
			t.Errorf("model decode: expected %q, got %q", text, string(direct))
		}
	}
}

func TestModelEncodeWithoutTrain(t *testing.T) {
	model := NewModel()
	if model.Trained() {
		t.Fatal("new model reports trained")
	}
	if _, err := model.Encode("abc"); !errors.Is(err, ErrUntrainedModel) {
		t.Errorf("expected ErrUntrainedModel, got %v", err)
	}
	if _, err := model.Decode(&Archive{}); !errors.Is(err, ErrUntrainedModel) {
		t.Errorf("expected ErrUntrainedModel from Decode, got %v", err)
	}
}

func TestModelTrainEmpty(t *testing.T) {
	model := NewModel()
	if err := model.Train(""); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if model.Trained() {
		t.Error("failed training should leave the model untrained")
	}
	if _, err := TrainModel(""); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput from TrainModel, got %v", err)
	}
}

func TestModelUnknownSymbol(t *testing.T) {
	model, err := TrainModel("abc")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := model.Encode("abd"); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestModelRetrain(t *testing.T) {
	model, err := TrainModel("aaaa")
	if err != nil {
		t.Fatal(err)
	}
	if err := model.Train("xyz"); err != nil {
		t.Fatal(err)
	}
	if _, err := model.Encode("a"); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol after retraining, got %v", err)
	}
	archive, err := model.Encode("zyx")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := archive.DecodeString(); got != "zyx" {
		t.Errorf("expected zyx, got %q", got)
	}
}

func TestModelDecodeForeignArchive(t *testing.T) {
	model, err := TrainModel("ab")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		text string
	}{
		{"other alphabet", "xyyx"},
		{"same alphabet, other codes", "aaab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			foreign := mustEncode(t, NewEncoder(), tt.text)
			if model.Table().Equal(foreign.Table) {
				t.Fatalf("test input %q shares the model table", tt.text)
			}
			if _, err := model.Decode(foreign); !errors.Is(err, ErrTableMismatch) {
				t.Errorf("expected ErrTableMismatch, got %v", err)
			}
		})
	}
}

func TestModelDecodeLoadedArchive(t *testing.T) {
	model, err := TrainModel("abracadabra")
	if err != nil {
		t.Fatal(err)
	}
	archive, err := model.Encode("cabbard")
	if err != nil {
		t.Fatal(err)
	}

	var loaded Archive
	if err := loaded.UnmarshalBinary(mustMarshal(t, archive)); err != nil {
		t.Fatal(err)
	}
	got, err := model.Decode(&loaded)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "cabbard" {
		t.Errorf("expected cabbard, got %q", string(got))
	}
}

func TestModelRejectsInvalidUTF8(t *testing.T) {
	model := NewModel()
	if err := model.Train("ok\xc3"); !errors.Is(err, ErrInvalidText) {
		t.Errorf("Train: expected ErrInvalidText, got %v", err)
	}
	if model.Trained() {
		t.Error("failed training should leave the model untrained")
	}

	if err := model.Train("abc"); err != nil {
		t.Fatal(err)
	}
	if _, err := model.Encode("a\x80b"); !errors.Is(err, ErrInvalidText) {
		t.Errorf("Encode: expected ErrInvalidText, got %v", err)
	}
}
