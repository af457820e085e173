package utils

import "image/color"

// DefaultAnnotationColor is used for ground truth boxes and for labels the
// palette cannot serve.
var DefaultAnnotationColor = color.RGBA{R: 0, G: 255, B: 0}

var labelColors = []color.RGBA{
	{R: 31, G: 119, B: 180},
	{R: 255, G: 127, B: 14},
	{R: 44, G: 160, B: 44},
	{R: 214, G: 39, B: 40},
	{R: 148, G: 103, B: 189},
	{R: 140, G: 86, B: 75},
	{R: 227, G: 119, B: 194},
	{R: 127, G: 127, B: 127},
	{R: 188, G: 189, B: 34},
	{R: 23, G: 190, B: 207},
	{R: 174, G: 199, B: 232},
	{R: 255, G: 187, B: 120},
	{R: 152, G: 223, B: 138},
	{R: 255, G: 152, B: 150},
	{R: 197, G: 176, B: 213},
	{R: 196, G: 156, B: 148},
	{R: 247, G: 182, B: 210},
	{R: 199, G: 199, B: 199},
	{R: 219, G: 219, B: 141},
	{R: 158, G: 218, B: 229},
}

// LabelColor returns a deterministic color for a class label, wrapping around
// the palette for labels past its end.
func LabelColor(label int) color.RGBA {
	if label < 0 {
		return DefaultAnnotationColor
	}
	return labelColors[label%len(labelColors)]
}
