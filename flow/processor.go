package flow

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strconv"

	"github.com/sdeoras/inception/config"
	"github.com/sdeoras/inception/inception"
	"github.com/sirupsen/logrus"
)

const (
	// AttributeImagePath names a file to read the image from when the
	// FlowFile has no content.
	AttributeImagePath = "imgpath"
	// AttributeModelDir overrides the processor's model directory.
	AttributeModelDir = "modeldir"
	// AttributeProbabilities holds the JSON encoded result.
	AttributeProbabilities = "probabilities"
	AttributeMimeType      = "mime.type"
)

// Relationship is the route a FlowFile takes after OnTrigger.
type Relationship string

const (
	RelSuccess Relationship = "success"
	RelFailure Relationship = "failure"
	RelNoMatch Relationship = "nomatch"
)

// Output selects how a result is written to the FlowFile.
type Output int

const (
	// OutputJSON writes a single "probabilities" attribute.
	OutputJSON Output = iota
	// OutputPerRank writes label_<n> and probability_<n> for n = 1..k.
	OutputPerRank
)

// Classifier is the part of inception.Service the processor uses.
type Classifier interface {
	ClassifyTopK(image []byte, modelDir string, k int) (inception.Result, error)
}

// Properties are the processor's configured defaults.
type Properties struct {
	ImagePath string
	ModelDir  string
	TopK      int
	Output    Output
}

type Processor struct {
	classifier Classifier
	props      Properties
	readFile   func(string) ([]byte, error)
	log        logrus.FieldLogger
}

// NewProcessor returns a Processor. Zero properties fall back to the
// /models directory and inception.DefaultTopK.
func NewProcessor(classifier Classifier, props Properties, log logrus.FieldLogger) *Processor {
	if props.ModelDir == "" {
		props.ModelDir = config.DefaultModelDir
	}
	if props.TopK <= 0 {
		props.TopK = inception.DefaultTopK
	}
	return &Processor{
		classifier: classifier,
		props:      props,
		readFile:   ioutil.ReadFile,
		log:        log,
	}
}

// OnTrigger classifies one FlowFile.
//
// Success returns a copy carrying the result attributes. A FlowFile with no
// image or an image without any label goes to RelNoMatch unchanged. On error
// the input FlowFile is returned untouched on RelFailure along with the
// error.
func (p *Processor) OnTrigger(ff *FlowFile) (Relationship, *FlowFile, error) {
	log := p.log.WithField("flowFile", ff.ID)

	image, err := p.image(ff)
	if err != nil {
		log.WithError(err).Error("unable to read image")
		return RelFailure, ff, err
	}
	if len(image) == 0 {
		log.Info("no image, routing to nomatch")
		return RelNoMatch, ff, nil
	}

	modelDir := p.props.ModelDir
	if dir, ok := ff.Attribute(AttributeModelDir); ok {
		modelDir = dir
	}

	result, err := p.classifier.ClassifyTopK(image, modelDir, p.props.TopK)
	if err != nil {
		log.WithError(err).Error("failed to classify image")
		return RelFailure, ff, err
	}
	if len(result) == 0 {
		return RelNoMatch, ff, nil
	}

	out := ff.Clone()
	switch p.props.Output {
	case OutputPerRank:
		for _, r := range result {
			rank := strconv.Itoa(r.DisplayRank())
			out.Attributes["label_"+rank] = r.Label
			out.Attributes["probability_"+rank] = r.Probability
		}
	default:
		b, err := json.Marshal(result)
		if err != nil {
			return RelFailure, ff, err
		}
		out.Attributes[AttributeMimeType] = "application/json"
		out.Attributes[AttributeProbabilities] = string(b)
	}

	best, _ := result.Best()
	log.WithFields(logrus.Fields{
		"label":       best.Label,
		"probability": best.Probability,
	}).Info("classified")

	return RelSuccess, out, nil
}

// image returns the FlowFile content or, when empty, the bytes of the file
// named by the imgpath attribute or property.
func (p *Processor) image(ff *FlowFile) ([]byte, error) {
	if len(ff.Content) > 0 {
		return ff.Content, nil
	}

	path := p.props.ImagePath
	if v, ok := ff.Attribute(AttributeImagePath); ok {
		path = v
	}
	if path == "" {
		return nil, nil
	}

	b, err := p.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("error on file read %s: %w", path, err)
	}
	return b, nil
}
