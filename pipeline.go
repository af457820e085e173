package go_retinanet_pipeline

import (
	"github.com/okieraised/go-retinanet-pipeline/config"
	"github.com/okieraised/go-retinanet-pipeline/modules"
	"github.com/okieraised/go-retinanet-pipeline/utils"
	gotritonclient "github.com/okieraised/go-triton-client"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"
)

type DetectionResult struct {
	Boxes       *tensor.Dense `json:"boxes"`
	Scores      *tensor.Dense `json:"scores"`
	Labels      []int         `json:"labels"`
	ObjectCount int           `json:"object_count"`
}

type ObjectDetectionPipeline struct {
	tritonClient *gotritonclient.TritonGRPCClient
	detection    *modules.RetinaNetDetectionClient
}

// NewObjectDetectionPipeline initializes a new object detection pipeline
func NewObjectDetectionPipeline(tritonClient *gotritonclient.TritonGRPCClient) (*ObjectDetectionPipeline, error) {
	if err := utils.AssertOpenCVVersion(); err != nil {
		return nil, err
	}

	client := &ObjectDetectionPipeline{}
	client.tritonClient = tritonClient

	detection, err := modules.NewRetinaNetDetectionClient(tritonClient, config.DefaultRetinaNetDetectionParams)
	if err != nil {
		return client, err
	}
	client.detection = detection

	return client, nil
}

// DetectObjects runs detection on one image and returns the boxes in the
// coordinates of img, their scores, and their class labels.
func (c *ObjectDetectionPipeline) DetectObjects(img gocv.Mat) (*DetectionResult, error) {
	resp := &DetectionResult{}

	dets, labels, err := c.detection.Infer(img)
	if err != nil {
		return resp, err
	}

	boxes, scores, err := splitDetections(dets)
	if err != nil {
		return resp, err
	}
	resp.Boxes = boxes
	resp.Scores = scores
	resp.Labels = labels
	resp.ObjectCount = len(labels)

	return resp, nil
}

// AnnotateDetections draws a detection result onto img. labelNames maps class
// ids to display names, config.COCOLabelMapper fits the default model; a nil
// map captions boxes with the numeric label.
func (c *ObjectDetectionPipeline) AnnotateDetections(img *gocv.Mat, result *DetectionResult, labelNames map[int]string) error {
	if result == nil || result.ObjectCount == 0 {
		return nil
	}

	var labelToName func(int) string
	if labelNames != nil {
		labelToName = func(label int) string {
			return labelNames[label]
		}
	}

	return utils.DrawDetections(img, result.Boxes, result.Scores, result.Labels, nil, labelToName, utils.RefPointer(float32(0)))
}

// splitDetections splits (N, 5) detection rows into an (N, 4) box tensor and
// an (N) score vector.
func splitDetections(dets *tensor.Dense) (*tensor.Dense, *tensor.Dense, error) {
	shape := dets.Shape()
	if len(shape) != 2 || shape[1] != 5 {
		return nil, nil, errors.Errorf("detections must have shape (N, 5), got %v", shape)
	}
	numDets := shape[0]
	if numDets == 0 {
		boxes := tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(0, 4))
		scores := tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(0))
		return boxes, scores, nil
	}

	boxesView, err := dets.Slice(nil, tensor.S(0, 4))
	if err != nil {
		return nil, nil, err
	}
	boxes := tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(numDets, 4))
	if err := tensor.Copy(boxes, boxesView); err != nil {
		return nil, nil, err
	}

	scoresView, err := dets.Slice(nil, tensor.S(4))
	if err != nil {
		return nil, nil, err
	}
	scores := tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(numDets))
	if err := tensor.Copy(scores, scoresView); err != nil {
		return nil, nil, err
	}

	return boxes, scores, nil
}
