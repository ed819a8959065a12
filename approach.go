package deflect

import (
	"errors"
	"sort"
)

// LunarDistance is the mean Earth-Moon distance in km.
const LunarDistance = 384400.0

// CloseApproaches returns the points closer to the Earth than maxDistance (km), closest first.
func CloseApproaches(points []TrajectoryPoint, maxDistance float64) []TrajectoryPoint {
	var near []TrajectoryPoint
	for _, pt := range points {
		if pt.EarthDistance < maxDistance {
			near = append(near, pt)
		}
	}
	sort.SliceStable(near, func(i, j int) bool {
		return near[i].EarthDistance < near[j].EarthDistance
	})
	return near
}

// ClosestApproach returns the point of minimum Earth distance.
func ClosestApproach(points []TrajectoryPoint) (TrajectoryPoint, error) {
	if len(points) == 0 {
		return TrajectoryPoint{}, errors.New("no trajectory points")
	}
	closest := points[0]
	for _, pt := range points[1:] {
		if pt.EarthDistance < closest.EarthDistance {
			closest = pt
		}
	}
	return closest, nil
}
