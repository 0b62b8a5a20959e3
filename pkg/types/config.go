// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "equation-scribe/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the paper fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// PapersDir is the base directory for papers (contains raw/).
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`
}

// IngestConfig holds settings for PDF page rasterization.
type IngestConfig struct {
	// DPI is the rasterization resolution (default 300).
	DPI int `json:"dpi" yaml:"dpi"`

	// PagesDir is the base directory for rendered page images
	// (one subdirectory per paper).
	PagesDir string `json:"pages_dir" yaml:"pages_dir"`
}

// DetectConfig holds settings for the heuristic equation detector.
type DetectConfig struct {
	// MinScore is the minimum candidate score to keep (default 0.6).
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// SynthConfig holds settings for synthetic page generation.
type SynthConfig struct {
	// Pages is the number of synthetic pages to generate (default 50).
	Pages int `json:"pages" yaml:"pages"`

	// EqsPerPage is the number of equations pasted onto each page (default 5).
	EqsPerPage int `json:"eqs_per_page" yaml:"eqs_per_page"`

	// DPI is the rendering resolution for equation images (default 150).
	DPI int `json:"dpi" yaml:"dpi"`

	// Seed seeds equation choice and placement.
	Seed int64 `json:"seed" yaml:"seed"`
}

// SplitConfig holds settings for the by-paper train/val split.
type SplitConfig struct {
	// ValFrac is the fraction of papers reserved for validation (default 0.2).
	ValFrac float64 `json:"val_frac" yaml:"val_frac"`

	// Seed seeds the paper shuffle so splits are reproducible.
	Seed int64 `json:"seed" yaml:"seed"`
}

// TileConfig holds settings for tiling page images into detector crops.
type TileConfig struct {
	// TileSize is the tile edge length in pixels (default 1024).
	TileSize int `json:"tile_size" yaml:"tile_size"`

	// Stride is the window step in pixels (default 512).
	Stride int `json:"stride" yaml:"stride"`

	// MinAreaFrac is the minimum fraction of an annotation's area that must
	// fall inside a tile for the clipped box to be kept (default 0.25).
	MinAreaFrac float64 `json:"min_area_frac" yaml:"min_area_frac"`

	// KeepEmptyProb is the probability of keeping a tile with no
	// annotations, as hard negatives (default 0.05).
	KeepEmptyProb float64 `json:"keep_empty_prob" yaml:"keep_empty_prob"`

	// Seed seeds the empty-tile lottery.
	Seed int64 `json:"seed" yaml:"seed"`
}

// PreprocessConfig selects the cleanup steps applied to scanned page images.
type PreprocessConfig struct {
	// Denoise applies non-local-means denoising.
	Denoise bool `json:"denoise" yaml:"denoise"`

	// Deskew rotates the page by the minimum-area-rectangle angle of its edges.
	Deskew bool `json:"deskew" yaml:"deskew"`

	// Stretch applies CLAHE contrast enhancement.
	Stretch bool `json:"stretch" yaml:"stretch"`

	// Binarize applies a Gaussian-window adaptive threshold.
	Binarize bool `json:"binarize" yaml:"binarize"`
}

// TrainConfig holds the arguments forwarded to the external YOLO trainer.
type TrainConfig struct {
	// Model is the base model weights (e.g. "yolov8s.pt").
	Model string `json:"model" yaml:"model"`

	// Data is the path to the Ultralytics dataset YAML.
	Data string `json:"data" yaml:"data"`

	// Epochs is the number of training epochs (default 50).
	Epochs int `json:"epochs" yaml:"epochs"`

	// ImageSize is the training image size (default 1024).
	ImageSize int `json:"imgsz" yaml:"imgsz"`

	// Batch is the batch size (default 8).
	Batch int `json:"batch" yaml:"batch"`

	// Device selects the compute device ("0", "cpu"; default "cpu").
	Device string `json:"device" yaml:"device"`

	// RunName names the training run directory. When empty a name is
	// derived from the model plus a random suffix.
	RunName string `json:"run_name" yaml:"run_name"`
}

// PredictConfig holds the arguments for running detector inference.
type PredictConfig struct {
	// Model is the path to trained weights.
	Model string `json:"model" yaml:"model"`

	// Conf is the confidence threshold (default 0.25).
	Conf float64 `json:"conf" yaml:"conf"`

	// IOU is the NMS IoU threshold (default 0.5).
	IOU float64 `json:"iou" yaml:"iou"`

	// MaxDet caps detections per image (default 300).
	MaxDet int `json:"max_det" yaml:"max_det"`
}

// CatalogConfig holds settings for the SQLite equation catalog.
type CatalogConfig struct {
	// DataRoot is the profiles root holding per-paper directories and the
	// catalog database.
	DataRoot string `json:"data_root" yaml:"data_root"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
