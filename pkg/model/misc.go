package model

import "fmt"

// NewDoseCompensation creates a dose compensation node adjusting exposure
// near an edge. domainSize is [width, height, depth] in micrometers and
// must be positive; gainLimit must be at least 1.
func NewDoseCompensation(name string, edgeLocation Vec3, edgeOrientation float64, domainSize Vec3, gainLimit float64) (*Node, error) {
	if name == "" {
		name = "Dose compensation 1"
	}
	if domainSize.X <= 0 || domainSize.Y <= 0 || domainSize.Z <= 0 {
		return nil, fmt.Errorf("dose compensation: domain size must be positive on all axes")
	}
	if gainLimit < 1 {
		return nil, fmt.Errorf("dose compensation: gain limit must be at least 1, got %v", gainLimit)
	}
	return newNode(KindDoseCompensation, name, &DoseCompensationData{
		EdgeLocation:    edgeLocation,
		EdgeOrientation: edgeOrientation,
		DomainSize:      domainSize,
		GainLimit:       gainLimit,
	}), nil
}

// NewCapture creates a capture node in camera mode.
func NewCapture(name string) *Node {
	if name == "" {
		name = "Capture"
	}
	return newNode(KindCapture, name, &CaptureData{
		CaptureType:        "Camera",
		LaserPower:         0.5,
		ScanAreaSize:       Vec2{100, 100},
		ScanAreaRefFactors: Vec2{1, 1},
	})
}

// ConfocalCapture switches a capture node to confocal mode with the
// given scan settings.
func (n *Node) ConfocalCapture(laserPower float64, scanAreaSize, scanAreaRefFactors Vec2) error {
	d, ok := n.Data.(*CaptureData)
	if !ok {
		return fmt.Errorf("confocal capture: node %s is a %s, not a capture", n.ID.Short(), n.Kind)
	}
	d.CaptureType = "Confocal"
	d.LaserPower = laserPower
	d.ScanAreaSize = scanAreaSize
	d.ScanAreaRefFactors = scanAreaRefFactors
	return nil
}

// NewStageMove creates a stage move node targeting the given absolute
// stage position.
func NewStageMove(name string, stagePosition Vec3) *Node {
	if name == "" {
		name = "Stage move"
	}
	return newNode(KindStageMove, name, &StageMoveData{
		TargetPosition: stagePosition,
	})
}

// NewWait creates a wait node pausing the process for the given time in
// seconds.
func NewWait(name string, waitTime float64) (*Node, error) {
	if name == "" {
		name = "Wait"
	}
	if waitTime <= 0 {
		return nil, fmt.Errorf("wait: wait time must be positive, got %v", waitTime)
	}
	return newNode(KindWait, name, &WaitData{WaitTime: waitTime}), nil
}
