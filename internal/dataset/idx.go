package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

// IDX magic numbers for unsigned-byte images and labels.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// LoadIDX reads an MNIST image file and its label file. Pixels are scaled
// from [0, 255] to [0, 1] and labels are one-hot encoded over classes.
// Files ending in .gz are decompressed.
func LoadIDX(imagesPath, labelsPath string, classes int) (*Dataset, error) {
	images, err := withFile(imagesPath, readIDXImages)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", imagesPath, err)
	}
	labels, err := withFile(labelsPath, readIDXLabels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", labelsPath, err)
	}
	return fromIDX(images, labels, classes)
}

// ReadIDX is LoadIDX over arbitrary readers.
func ReadIDX(images, labels io.Reader, classes int) (*Dataset, error) {
	img, err := readIDXImages(images)
	if err != nil {
		return nil, err
	}
	lbl, err := readIDXLabels(labels)
	if err != nil {
		return nil, err
	}
	return fromIDX(img, lbl, classes)
}

func fromIDX(images [][]byte, labels []byte, classes int) (*Dataset, error) {
	if len(images) != len(labels) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrFormat, len(images), len(labels))
	}
	if len(images) == 0 {
		return nil, ErrEmpty
	}

	d := &Dataset{
		Inputs:  make([][]float64, len(images)),
		Targets: make([][]float64, len(images)),
	}
	for i, img := range images {
		row := make([]float64, len(img))
		for j, px := range img {
			row[j] = float64(px) / 255
		}
		target, err := OneHot(int(labels[i]), classes)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		d.Inputs[i] = row
		d.Targets[i] = target
	}
	return d, nil
}

func withFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return zero, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		defer gz.Close()
		r = gz
	}
	return read(r)
}

// readIDXImages reads images in IDX format:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func readIDXImages(r io.Reader) ([][]byte, error) {
	var header struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: image header: %w", ErrFormat, err)
	}
	if header.Magic != idxImagesMagic {
		return nil, fmt.Errorf("%w: invalid magic number: got %d, want %d", ErrFormat, header.Magic, idxImagesMagic)
	}

	imageSize := int(header.Rows) * int(header.Cols)
	images := make([][]byte, header.Count)
	for i := range images {
		images[i] = make([]byte, imageSize)
		if _, err := io.ReadFull(r, images[i]); err != nil {
			return nil, fmt.Errorf("%w: image %d: %w", ErrFormat, i, err)
		}
	}
	return images, nil
}

// readIDXLabels reads labels in IDX format:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes
func readIDXLabels(r io.Reader) ([]byte, error) {
	var header struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: label header: %w", ErrFormat, err)
	}
	if header.Magic != idxLabelsMagic {
		return nil, fmt.Errorf("%w: invalid magic number: got %d, want %d", ErrFormat, header.Magic, idxLabelsMagic)
	}

	labels := make([]byte, header.Count)
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, fmt.Errorf("%w: labels: %w", ErrFormat, err)
	}
	return labels, nil
}
