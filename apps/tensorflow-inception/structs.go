package main

import (
	"time"

	"github.com/sdeoras/inception/flow"
	"github.com/sdeoras/inception/inception"
)

type ClassifyResult struct {
	Filename    string            `json:"filename"`
	FlowFileID  string            `json:"flowfile"`
	Route       flow.Relationship `json:"route"`
	Label       string            `json:"label,omitempty"`
	Probability string            `json:"probability,omitempty"`
	FileSize    uint64            `json:"filesize"`
	FileIOTime  time.Duration     `json:"fileiotime"`
	ComputeTime time.Duration     `json:"computetime"`
	Labels      inception.Result  `json:"labels"`
}
