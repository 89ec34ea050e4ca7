package detect

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

const (
	// onnxInputSize is the square model input resolution.
	onnxInputSize = 640
	// onnxAnchors is the number of candidate anchors in the output grid.
	onnxAnchors = 8400
	// onnxValuesPerAnchor is 4 box coordinates plus 80 COCO class scores.
	onnxValuesPerAnchor = 84
	// personClassIndex is the COCO index of the person class.
	personClassIndex = 0
)

// ONNXOptions configure the ONNX oracle backend.
type ONNXOptions struct {
	// ModelPath points to a YOLO-family ONNX model with a
	// [1, 84, 8400] output head.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// LibraryPath optionally overrides the onnxruntime shared library
	// location. Empty uses the runtime's platform default.
	LibraryPath string `json:"library_path" yaml:"library_path"`
	// Logits marks heads that emit raw logits; scores are then passed
	// through a sigmoid before thresholding.
	Logits bool `json:"logits" yaml:"logits"`
}

// ONNXOracle runs a person-class ONNX detector through onnxruntime.
// Dense anchor grids replace sliding windows, so the scan parameters'
// stride, padding and pyramid scale are accepted and ignored; the
// decision threshold maps to the score floor. Unlike the HOG backend,
// confidences here are real model scores.
type ONNXOracle struct {
	opts        ONNXOptions
	session     *ort.AdvancedSession
	input       *ort.Tensor[float32]
	output      *ort.Tensor[float32]
	initialized bool
	log         *logrus.Logger
}

// NewONNXOracle creates an uninitialized ONNX oracle.
func NewONNXOracle(opts ONNXOptions, log *logrus.Logger) *ONNXOracle {
	return &ONNXOracle{opts: opts, log: log}
}

// Init loads the runtime environment, allocates the input and output
// tensors and opens the session. Safe to call twice.
func (o *ONNXOracle) Init() error {
	if o.initialized {
		return nil
	}
	if o.opts.ModelPath == "" {
		return errors.New("onnx oracle requires a model path")
	}

	if o.opts.LibraryPath != "" {
		ort.SetSharedLibraryPath(o.opts.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "initializing onnxruntime environment")
	}

	inputShape := ort.NewShape(1, 3, onnxInputSize, onnxInputSize)
	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return errors.Wrap(err, "creating input tensor")
	}

	outputShape := ort.NewShape(1, onnxValuesPerAnchor, onnxAnchors)
	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		input.Destroy()
		return errors.Wrap(err, "creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		input.Destroy()
		output.Destroy()
		return errors.Wrap(err, "setting graph optimization level")
	}

	session, err := ort.NewAdvancedSession(
		o.opts.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return errors.Wrapf(err, "creating session for %s", o.opts.ModelPath)
	}

	o.session = session
	o.input = input
	o.output = output
	o.initialized = true
	o.log.WithField("model", o.opts.ModelPath).Debug("ONNX oracle initialized")
	return nil
}

// Scan runs one inference pass over the frame.
func (o *ONNXOracle) Scan(frame gocv.Mat, params ScanParams) ([]image.Rectangle, []float64, error) {
	if !o.initialized {
		return nil, nil, errors.New("oracle not initialized")
	}

	if err := o.prepareInput(frame); err != nil {
		return nil, nil, errors.Wrap(err, "preparing model input")
	}
	if err := o.session.Run(); err != nil {
		return nil, nil, errors.Wrap(err, "running inference")
	}

	frameSize := image.Pt(frame.Cols(), frame.Rows())
	rects, scores := decodeAnchors(o.output.GetData(), frameSize, params.HitThreshold, o.opts.Logits)
	return rects, scores, nil
}

// prepareInput resizes the frame to the model resolution and fills the
// input tensor with planar RGB floats in [0, 1].
func (o *ONNXOracle) prepareInput(frame gocv.Mat) error {
	bgr := frame
	owned := false
	if frame.Channels() == 1 {
		bgr = gocv.NewMat()
		owned = true
		gocv.CvtColor(frame, &bgr, gocv.ColorGrayToBGR)
	}
	if owned {
		defer bgr.Close()
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(bgr, &resized, image.Pt(onnxInputSize, onnxInputSize), 0, 0, gocv.InterpolationLinear)

	pixels, err := resized.DataPtrUint8()
	if err != nil {
		return errors.Wrap(err, "accessing frame data")
	}

	data := o.input.GetData()
	plane := onnxInputSize * onnxInputSize
	red := data[0:plane]
	green := data[plane : 2*plane]
	blue := data[2*plane : 3*plane]
	for i := 0; i < plane; i++ {
		// Capture frames are BGR byte triplets.
		blue[i] = float32(pixels[i*3]) / 255.0
		green[i] = float32(pixels[i*3+1]) / 255.0
		red[i] = float32(pixels[i*3+2]) / 255.0
	}
	return nil
}

// Close destroys the session, tensors and runtime environment.
func (o *ONNXOracle) Close() error {
	if !o.initialized {
		return nil
	}
	o.initialized = false
	o.input.Destroy()
	o.output.Destroy()
	o.session.Destroy()
	return ort.DestroyEnvironment()
}

// decodeAnchors converts the raw [1, 84, 8400] output into person boxes
// in frame coordinates. Values are laid out plane-major: 8400 center-x
// values, then center-y, width, height, then 80 class-score planes.
func decodeAnchors(data []float32, frameSize image.Point, scoreFloor float64, logits bool) ([]image.Rectangle, []float64) {
	var rects []image.Rectangle
	var scores []float64

	sx := float64(frameSize.X) / onnxInputSize
	sy := float64(frameSize.Y) / onnxInputSize

	for a := 0; a < onnxAnchors; a++ {
		score := data[(4+personClassIndex)*onnxAnchors+a]
		if logits {
			score = 1.0 / (1.0 + math32.Exp(-score))
		}
		if float64(score) < scoreFloor {
			continue
		}

		cx := float64(data[0*onnxAnchors+a])
		cy := float64(data[1*onnxAnchors+a])
		w := float64(data[2*onnxAnchors+a])
		h := float64(data[3*onnxAnchors+a])

		x1 := int((cx - w/2) * sx)
		y1 := int((cy - h/2) * sy)
		x2 := int((cx + w/2) * sx)
		y2 := int((cy + h/2) * sy)

		x1 = max(0, x1)
		y1 = max(0, y1)
		x2 = min(frameSize.X, x2)
		y2 = min(frameSize.Y, y2)

		rects = append(rects, image.Rect(x1, y1, x2, y2))
		scores = append(scores, float64(score))
	}

	return rects, scores
}
