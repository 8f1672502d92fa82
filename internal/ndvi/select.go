package ndvi

import "math"

// SelectLeastCloudy returns the scene with the lowest cloud cover below
// maxCloudCover (no bound when maxCloudCover <= 0). On ties the first one in
// catalog order wins. Scenes without a cloud cover value are skipped; ok is
// false when no scene is eligible.
func SelectLeastCloudy(scenes []Scene, maxCloudCover float64) (best Scene, ok bool) {
	for _, s := range scenes {
		if s.CloudCover == nil || math.IsNaN(*s.CloudCover) {
			continue
		}
		if maxCloudCover > 0 && *s.CloudCover >= maxCloudCover {
			continue
		}
		if !ok || *s.CloudCover < *best.CloudCover {
			best = s
			ok = true
		}
	}
	return best, ok
}
