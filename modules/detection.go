package modules

import (
	"fmt"
	"image"
	"math"

	"github.com/okieraised/go-retinanet-pipeline/config"
	"github.com/okieraised/go-retinanet-pipeline/processing"
	"github.com/okieraised/go-retinanet-pipeline/retinanet"
	"github.com/okieraised/go-retinanet-pipeline/utils"
	gotritonclient "github.com/okieraised/go-triton-client"
	"github.com/okieraised/go-triton-client/triton_proto"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"
)

// RetinaNetDetectionClient runs object detection against a RetinaNet model
// served by Triton. The network itself only outputs per anchor regression
// deltas and class scores; the client owns the geometry around it, tiling
// anchors over the feature pyramid, decoding and clipping boxes, and
// suppressing duplicate detections.
type RetinaNetDetectionClient struct {
	tritonClient        *gotritonclient.TritonGRPCClient
	ModelParams         *config.RetinaNetDetectionParams
	ModelConfig         *triton_proto.ModelConfigResponse
	imageSize           [2]int
	confidenceThreshold float32
	iouThreshold        float32
	maxDetections       int
	numClasses          int
	featStrideFPN       []int
	anchorConfig        map[string]processing.AnchorConfig
	anchorsFPN          map[string]*tensor.Dense
	numAnchors          int
	pixelMeans          []float32
	pixelStds           []float32
	pixelScale          float32
	bboxMean            []float32
	bboxStd             []float32
}

func NewRetinaNetDetectionClient(tritonClient *gotritonclient.TritonGRPCClient, cfg *config.RetinaNetDetectionParams) (*RetinaNetDetectionClient, error) {
	client := &RetinaNetDetectionClient{}
	client.ModelParams = cfg

	inferenceConfig, err := tritonClient.GetModelConfiguration(cfg.Timeout, cfg.ModelName, "")
	if err != nil {
		return nil, err
	}
	client.tritonClient = tritonClient
	client.ModelConfig = inferenceConfig
	client.imageSize = cfg.ImageSize
	client.confidenceThreshold = cfg.ConfidenceThreshold
	client.iouThreshold = cfg.IOUThreshold
	client.maxDetections = cfg.MaxDetections
	client.numClasses = cfg.NumClasses

	client.featStrideFPN = []int{8, 16, 32, 64, 128}
	ratios := []float32{0.5, 1, 2}
	scales := []float32{1, float32(math.Pow(2, 1.0/3.0)), float32(math.Pow(2, 2.0/3.0))}

	client.anchorConfig = map[string]processing.AnchorConfig{
		"8":   {BaseSize: 32, Ratios: ratios, Scales: scales},
		"16":  {BaseSize: 64, Ratios: ratios, Scales: scales},
		"32":  {BaseSize: 128, Ratios: ratios, Scales: scales},
		"64":  {BaseSize: 256, Ratios: ratios, Scales: scales},
		"128": {BaseSize: 512, Ratios: ratios, Scales: scales},
	}

	fpn, err := processing.GenerateAnchorsFPN(client.anchorConfig)
	if err != nil {
		return nil, err
	}
	client.anchorsFPN = make(map[string]*tensor.Dense)
	for idx, s := range client.featStrideFPN {
		client.anchorsFPN[fmt.Sprintf("stride%d", s)] = fpn[idx]
	}
	client.numAnchors = fpn[0].Shape()[0]

	client.pixelMeans = []float32{103.939, 116.779, 123.68}
	client.pixelStds = []float32{1, 1, 1}
	client.pixelScale = 1.0
	client.bboxMean = processing.DefaultBBoxTransformMean
	client.bboxStd = processing.DefaultBBoxTransformStd

	return client, nil
}

// preprocess letterboxes the image into the model canvas, keeping aspect
// ratio and padding the remainder with black. The returned scale maps
// detections on the canvas back to the caller's image.
func (c *RetinaNetDetectionClient) preprocess(img gocv.Mat) (gocv.Mat, float64, error) {
	if img.Empty() {
		return gocv.Mat{}, 0, errors.New("input image is empty")
	}

	imgShape := img.Size()
	scale := math.Min(
		float64(c.imageSize[0])/float64(imgShape[1]),
		float64(c.imageSize[1])/float64(imgShape[0]),
	)
	newWidth := int(float64(imgShape[1]) * scale)
	newHeight := int(float64(imgShape[0]) * scale)
	detScale := float64(newHeight) / float64(imgShape[0])

	resizedImg := gocv.NewMat()
	defer resizedImg.Close()
	gocv.Resize(img, &resizedImg, image.Point{X: newWidth, Y: newHeight}, 0, 0, gocv.InterpolationLinear)

	detImg := gocv.NewMatWithSizesWithScalar([]int{c.imageSize[1], c.imageSize[0]}, gocv.MatTypeCV8UC3, gocv.NewScalar(0, 0, 0, 0))
	roi := detImg.Region(image.Rect(0, 0, newWidth, newHeight))
	gocv.Resize(resizedImg, &roi, image.Point{X: roi.Size()[1], Y: roi.Size()[0]}, 0, 0, gocv.InterpolationLinear)
	_ = roi.Close()

	return detImg, detScale, nil
}

// Infer runs the full detection pass on one image. It returns the surviving
// detections as an (M, 5) tensor of (x1, y1, x2, y2, score) rows in the
// coordinates of the input image, along with the class label of each row.
func (c *RetinaNetDetectionClient) Infer(img gocv.Mat) (*tensor.Dense, []int, error) {
	preprocessedImg, detScale, err := c.preprocess(img)
	if err != nil {
		return nil, nil, err
	}
	defer preprocessedImg.Close()

	imgShape := preprocessedImg.Size()
	imgTensors := tensor.New(
		tensor.Of(processing.Dtype),
		tensor.WithShape(1, 3, imgShape[0], imgShape[1]),
	)

	// Caffe style preprocessing: channels stay in OpenCV BGR order, the per
	// channel mean is subtracted, no further scaling.
	for z := 0; z < 3; z++ {
		for y := 0; y < imgShape[0]; y++ {
			for x := 0; x < imgShape[1]; x++ {
				err := imgTensors.SetAt((float32(preprocessedImg.GetVecbAt(y, x)[z])/c.pixelScale-c.pixelMeans[z])/c.pixelStds[z], 0, z, y, x)
				if err != nil {
					return nil, nil, err
				}
			}
		}
	}

	modelRequest := &triton_proto.ModelInferRequest{
		ModelName: c.ModelParams.ModelName,
	}

	modelInputs := make([]*triton_proto.ModelInferRequest_InferInputTensor, 0)
	for _, inputCfg := range c.ModelConfig.Config.Input {
		modelInput := &triton_proto.ModelInferRequest_InferInputTensor{
			Name:     inputCfg.Name,
			Datatype: inputCfg.DataType.String()[5:],
			Shape:    inputCfg.Dims,
			Contents: &triton_proto.InferTensorContents{
				Fp32Contents: imgTensors.Float32s(),
			},
		}
		modelInputs = append(modelInputs, modelInput)
	}

	modelRequest.Inputs = modelInputs
	inferResp, err := c.tritonClient.ModelGRPCInfer(c.ModelParams.Timeout, modelRequest)
	if err != nil {
		return nil, nil, err
	}

	netOut := make(map[string]*tensor.Dense, len(inferResp.Outputs))
	for idx, out := range inferResp.Outputs {
		outShape := make([]int, 0)
		for _, dim := range out.Shape {
			outShape = append(outShape, int(dim))
		}
		netOut[out.Name] = tensor.New(
			tensor.Of(processing.Dtype),
			tensor.WithShape(outShape...),
			tensor.WithBacking(utils.BytesToT32[float32](inferResp.RawOutputContents[idx])),
		)
	}
	regression, ok := netOut[c.ModelParams.RegressionOutput]
	if !ok {
		return nil, nil, errors.Errorf("model response is missing output %q", c.ModelParams.RegressionOutput)
	}
	classification, ok := netOut[c.ModelParams.ClassificationOutput]
	if !ok {
		return nil, nil, errors.Errorf("model response is missing output %q", c.ModelParams.ClassificationOutput)
	}

	return c.postprocess(regression, classification, imgShape, detScale)
}

// postprocess turns raw network outputs into detections on the original
// image: anchors are tiled per pyramid level and stacked, regression deltas
// decoded onto them, boxes clipped to the model canvas, low confidence
// anchors dropped, overlapping detections suppressed, and the survivors
// scaled back into the caller's image frame.
func (c *RetinaNetDetectionClient) postprocess(regression, classification *tensor.Dense, imgShape []int, detScale float64) (*tensor.Dense, []int, error) {
	levelAnchors := make([]*tensor.Dense, 0, len(c.featStrideFPN))
	for _, s := range c.featStrideFPN {
		featShape := []int{(imgShape[0] + s - 1) / s, (imgShape[1] + s - 1) / s}
		shifted, err := retinanet.Shift(imgShape, featShape, s, c.anchorsFPN[fmt.Sprintf("stride%d", s)])
		if err != nil {
			return nil, nil, err
		}
		levelAnchors = append(levelAnchors, shifted)
	}
	anchors, err := utils.VStack(levelAnchors)
	if err != nil {
		return nil, nil, err
	}
	totalAnchors := anchors.Shape()[0]

	regShape := regression.Shape()
	if len(regShape) != 3 || regShape[2] != 4 {
		return nil, nil, errors.Errorf("regression output must have shape (batch, anchors, 4), got %v", regShape)
	}
	clsShape := classification.Shape()
	if len(clsShape) != 3 || clsShape[2] != c.numClasses {
		return nil, nil, errors.Errorf("classification output must have shape (batch, anchors, %d), got %v", c.numClasses, clsShape)
	}
	if regShape[0] != 1 || clsShape[0] != 1 {
		return nil, nil, errors.Errorf("batched inference is not supported, got batch sizes %d and %d", regShape[0], clsShape[0])
	}
	if clsShape[1] != regShape[1] {
		return nil, nil, errors.Errorf("classification covers %d anchors but regression covers %d", clsShape[1], regShape[1])
	}
	if regShape[1] != totalAnchors {
		return nil, nil, errors.Errorf(
			"network predicts %d anchor rows but the pipeline tiled %d for a %dx%d input (%d templates per cell)",
			regShape[1], totalAnchors, imgShape[1], imgShape[0], c.numAnchors,
		)
	}

	if err := anchors.Reshape(1, totalAnchors, 4); err != nil {
		return nil, nil, err
	}
	decoded, err := processing.BBoxTransformInv(anchors, regression, c.bboxMean, c.bboxStd)
	if err != nil {
		return nil, nil, err
	}
	clipped, err := processing.ClipBoxes(decoded, []int{1, 3, imgShape[0], imgShape[1]}, processing.ImageDataFormatChannelsFirst)
	if err != nil {
		return nil, nil, err
	}
	if err := clipped.Reshape(totalAnchors, 4); err != nil {
		return nil, nil, err
	}

	clsData := classification.Float32s()
	candidates := make([]int, 0)
	scores := make([]float32, 0)
	labels := make([]int, 0)
	for i := 0; i < totalAnchors; i++ {
		row := clsData[i*c.numClasses : (i+1)*c.numClasses]
		best := 0
		for j := 1; j < len(row); j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		if row[best] < c.confidenceThreshold {
			continue
		}
		candidates = append(candidates, i)
		scores = append(scores, row[best])
		labels = append(labels, best)
	}
	if len(candidates) == 0 {
		return tensor.New(tensor.Of(processing.Dtype), tensor.WithShape(0, 5)), []int{}, nil
	}

	kept, err := utils.SelectRows2D(clipped, candidates)
	if err != nil {
		return nil, nil, err
	}
	scoreColumn := tensor.New(
		tensor.Of(processing.Dtype),
		tensor.WithShape(len(scores), 1),
		tensor.WithBacking(scores),
	)
	dets, err := utils.HStack([]*tensor.Dense{kept, scoreColumn})
	if err != nil {
		return nil, nil, err
	}

	keep, err := processing.NMS(dets, c.iouThreshold)
	if err != nil {
		return nil, nil, err
	}
	if len(keep) > c.maxDetections {
		keep = keep[:c.maxDetections]
	}

	final, err := utils.SelectRows2D(dets, keep)
	if err != nil {
		return nil, nil, err
	}
	finalLabels := make([]int, 0, len(keep))
	for _, k := range keep {
		finalLabels = append(finalLabels, labels[k])
	}

	finalData := final.Float32s()
	for i := 0; i < len(finalData); i += 5 {
		finalData[i] /= float32(detScale)
		finalData[i+1] /= float32(detScale)
		finalData[i+2] /= float32(detScale)
		finalData[i+3] /= float32(detScale)
	}

	return final, finalLabels, nil
}
