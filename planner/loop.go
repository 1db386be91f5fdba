package planner

import (
	"time"

	"github.com/rs/zerolog/log"

	"stickynav/evaluator"
	"stickynav/geometry"
	"stickynav/metrics"
	"stickynav/trajectory"
	"stickynav/visualization"
)

func (p *Planner) expandTrajectories() {
	s := p.session
	var added []*trajectory.Segment
	for i := 0; i < p.constraints.ExpandBatch; i++ {
		start := time.Now()
		segments := p.generator.Expand(s.root)
		p.collector.AddDuration(metrics.StageExpand, time.Since(start))

		s.budget.newTries++
		s.stats.TotalTries++
		for _, segment := range segments {
			s.treeSize++
			if !p.evaluateSegment(segment) {
				s.stats.FailedComputations++
				continue
			}
			s.budget.newSegments++
			s.stats.TotalSegments++
			s.expanded = true
			if p.constraints.MinNewValue != 0 && segment.Value >= p.constraints.MinNewValue {
				s.budget.minValueReached = true
			}
		}
		added = append(added, segments...)

		if p.constraints.maximumReached(s.budget) {
			break
		}
	}

	if p.visualize && len(added) > 0 {
		p.visualization.PublishCandidates(added)
		var markers visualization.Markers
		for _, segment := range added {
			if segment.Live {
				p.evaluator.VisualizeTrajectoryValue(&markers, segment)
			}
		}
		if len(markers) > 0 {
			p.visualization.PublishMarkers(markers)
		}
	}
}

// evaluateSegment computes gain, cost and value of a new segment. On
// failure the segment stays in the tree but is marked dead.
func (p *Planner) evaluateSegment(segment *trajectory.Segment) bool {
	start := time.Now()
	ok := p.evaluator.ComputeGain(segment)
	p.collector.AddDuration(metrics.StageGain, time.Since(start))
	if !ok {
		segment.Gain = 0
		segment.Live = false
		log.Debug().Msg("gain computation failed, segment marked non-viable")
		return false
	}

	start = time.Now()
	ok = p.evaluator.ComputeCost(segment)
	p.collector.AddDuration(metrics.StageCost, time.Since(start))
	if !ok {
		segment.Live = false
		log.Debug().Msg("cost computation failed, segment marked non-viable")
		return false
	}

	start = time.Now()
	ok = p.evaluator.ComputeValue(segment)
	p.collector.AddDuration(metrics.StageValue, time.Since(start))
	if !ok {
		segment.Live = false
		log.Debug().Msg("value computation failed, segment marked non-viable")
		return false
	}
	return true
}

// requestNextTrajectory commits to the best child of the root, or asks the
// back tracker for a recovery motion when there is none.
func (p *Planner) requestNextTrajectory(pose geometry.Pose) (Decision, float64) {
	s := p.session
	root := s.root

	start := time.Now()
	index := p.evaluator.SelectNextBest(root)
	p.collector.AddDuration(metrics.StageSelect, time.Since(start))

	if index == evaluator.None {
		p.recover(pose)
		return DecisionRecover, 0
	}
	if index < 0 || index >= len(root.Children) {
		log.Error().Msgf("next selector returned index %d for %d children, treating as no viable child", index, len(root.Children))
		p.recover(pose)
		return DecisionRecover, 0
	}
	if !root.Children[index].Live {
		log.Warn().Msgf("next selector chose non-viable child %d, treating as no viable child", index)
		p.recover(pose)
		return DecisionRecover, 0
	}

	next := p.commit(index)
	return DecisionCommit, next.Value
}

// commit re-roots the tree at the index-th child of the root and issues
// its trajectory. The siblings and their subtrees are dropped.
func (p *Planner) commit(index int) *trajectory.Segment {
	s := p.session
	previous := s.root
	next := previous.Children[index]

	killed := previous.Size() - 1 - next.Size()
	next.Detach()
	previous.Children = nil
	s.root = next
	s.treeSize -= killed + 1
	s.stats.KilledNext += killed
	s.stats.Commits++
	p.collector.AddKilledNext(killed)

	end, _ := next.End()
	p.odometry.setTarget(end.Pose())
	p.backTracker.SegmentExecuted(next)
	p.executor.RequestMovement(clonePoints(next.Trajectory))
	s.issued = true
	if p.visualize {
		p.visualization.PublishCompleted(next)
	}

	s.resetBudget()
	s.budget.minValueReached = p.checkMinNewValue(next)
	return next
}

// recover issues a recovery trajectory and keeps the tree as is.
func (p *Planner) recover(pose geometry.Pose) {
	s := p.session
	s.stats.Recoveries++
	s.resetBudget()

	points := p.backTracker.Recover(s.root, pose)
	if len(points) == 0 {
		log.Warn().Str("session", s.id).Msg("no viable branch and no recovery trajectory available")
		return
	}
	log.Warn().Str("session", s.id).Msgf("no viable branch, executing %d point recovery trajectory", len(points))

	p.odometry.setTarget(points[len(points)-1].Pose())
	p.executor.RequestMovement(clonePoints(points))
	s.issued = true
}

// updateTree revalidates every segment below the root in pre-order and
// prunes the subtree of each killed segment.
func (p *Planner) updateTree() {
	s := p.session
	root := s.root

	start := time.Now()
	killed, discarded := 0, 0
	root.Walk(func(segment *trajectory.Segment) bool {
		if segment == root {
			return true
		}
		if p.generator.UpdateSegment(segment) && p.evaluator.UpdateSegment(segment) {
			return true
		}
		// Segments that failed evaluation were never viable and are
		// already counted as failed computations.
		segment.Walk(func(pruned *trajectory.Segment) bool {
			if pruned.Live {
				killed++
			} else {
				discarded++
			}
			return true
		})
		segment.Detach()
		return false
	})
	p.collector.AddDuration(metrics.StageUpdate, time.Since(start))

	s.treeSize -= killed + discarded
	s.stats.Discarded += discarded
	if killed > 0 {
		s.stats.KilledUpdate += killed
		p.collector.AddKilledUpdate(killed)
	}
}

func clonePoints(points []trajectory.Point) []trajectory.Point {
	out := make([]trajectory.Point, len(points))
	copy(out, points)
	return out
}
