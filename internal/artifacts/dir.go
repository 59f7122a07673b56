package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"bookgenre/pkg/genre"
)

// DirOptions describes where the pieces of a model bundle live.
type DirOptions struct {
	// Dir is the bundle root. The label encoder sits here.
	Dir string
	// ModelSubdir holds config.json and tokenizer_config.json ("" means Dir itself).
	ModelSubdir string
	// LabelsFile is the label encoder file name inside Dir.
	LabelsFile string
	// MaxLength overrides the tokenizer's model_max_length when positive.
	MaxLength int
	// Model performs the forward pass for the bundle.
	Model genre.Classifier
}

// Dir loads artifacts from an unpacked model bundle.
type Dir struct {
	opts DirOptions
}

// NewDir creates a Dir provider.
func NewDir(opts DirOptions) *Dir {
	return &Dir{opts: opts}
}

// modelConfig is the part of a transformers config.json we care about.
type modelConfig struct {
	NameOrPath string            `json:"_name_or_path"`
	NumLabels  int               `json:"num_labels"`
	ID2Label   map[string]string `json:"id2label"`
}

type tokenizerConfig struct {
	ModelMaxLength float64 `json:"model_max_length"`
}

// Load reads the bundle and returns artifacts bound to the configured model.
// Every failure wraps genre.ErrArtifactLoad.
func (d *Dir) Load(_ context.Context) (*genre.Artifacts, error) {
	if d.opts.Model == nil {
		return nil, fmt.Errorf("%w: no model backend configured", genre.ErrArtifactLoad)
	}
	modelDir := filepath.Join(d.opts.Dir, d.opts.ModelSubdir)

	var mc modelConfig
	if err := readJSON(filepath.Join(modelDir, "config.json"), &mc); err != nil {
		return nil, fmt.Errorf("%w: model config: %w", genre.ErrArtifactLoad, err)
	}
	if mc.NumLabels == 0 {
		mc.NumLabels = len(mc.ID2Label)
	}

	tok := genre.DefaultTokenizer()
	var tc tokenizerConfig
	err := readJSON(filepath.Join(modelDir, "tokenizer_config.json"), &tc)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		log.WithField("dir", modelDir).Debug("No tokenizer_config.json, using default tokenizer settings")
	default:
		return nil, fmt.Errorf("%w: tokenizer config: %w", genre.ErrArtifactLoad, err)
	}
	if d.opts.MaxLength > 0 {
		tok.MaxLength = d.opts.MaxLength
	}
	if tc.ModelMaxLength > 0 && float64(tok.MaxLength) > tc.ModelMaxLength {
		return nil, fmt.Errorf("%w: max_length %d exceeds the tokenizer's model_max_length %.0f",
			genre.ErrArtifactLoad, tok.MaxLength, tc.ModelMaxLength)
	}

	labels, err := d.loadLabels(mc)
	if err != nil {
		return nil, err
	}

	name := mc.NameOrPath
	if name == "" {
		name = filepath.Base(modelDir)
	}

	log.WithFields(log.Fields{
		"model":      name,
		"classes":    labels.Len(),
		"num_labels": mc.NumLabels,
		"max_length": tok.MaxLength,
	}).Info("Model artifacts loaded")

	return &genre.Artifacts{
		Tokenizer: tok,
		Model:     d.opts.Model,
		Labels:    labels,
		Info:      genre.ModelInfo{Name: name, NumLabels: mc.NumLabels},
	}, nil
}

// loadLabels reads the label encoder file, falling back to the model's
// id2label table when the file is absent.
func (d *Dir) loadLabels(mc modelConfig) (*genre.LabelEncoder, error) {
	path := filepath.Join(d.opts.Dir, d.opts.LabelsFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && len(mc.ID2Label) > 0 {
			log.WithField("path", path).Warn("Label encoder file missing, using id2label from config.json")
			enc, err := genre.NewLabelEncoderFromIndex(mc.ID2Label)
			if err != nil {
				return nil, fmt.Errorf("%w: id2label: %w", genre.ErrArtifactLoad, err)
			}
			return enc, nil
		}
		return nil, fmt.Errorf("%w: label encoder: %w", genre.ErrArtifactLoad, err)
	}
	defer f.Close()

	enc, err := genre.LoadLabelEncoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: label encoder %s: %w", genre.ErrArtifactLoad, path, err)
	}
	return enc, nil
}

func readJSON(path string, dest any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
