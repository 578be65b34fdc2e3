// Package domain models a listing fit assessment: the listing and preference
// payloads, the provider contracts, and the pure scoring rules.
//
// # Pipeline
//
// An assessment geocodes the listing address (unless coordinates were
// supplied), fetches three environmental signals and resolves every proximity
// target concurrently, composes two scores, and writes a recap. Only request
// validation can fail an assessment. Every provider failure is absorbed,
// logged, and recorded in [Diagnostics].
//
// # Geocoding
//
// [LayeredGeocoder] tries, in order:
//
//	"123 Main St, Springfield, IL 62704"  primary, as given
//	"123 Main St, Springfield, IL"        primary, trailing postal code removed
//	"Springfield, IL"                     primary, city and state only
//	"123 Main St, Springfield, IL 62704"  secondary, as given
//
// Identical variants are sent once.
//
// # Signals
//
// Sound (0–100, higher is quieter):
//
//	>=85 Excellent | >=70 Good | >=55 Okay | >=40 Not Great | else Not Good
//
// Air quality, hourly AQI (1 best, 5 worst) averaged over the trailing twelve months:
//
//	<=1.5 → 90 Good | <=2.5 → 75 Okay | <=3.5 → 55 Not Great | else 30 Not Good
//
// Night sky, Bortle class 1–9. The API is tried first and a page scrape of the
// same contract second (see [NightSkyFallback]):
//
//	<=2.99 → 98 Excellent | <=3.99 → 85 Good | <=4.99 → 70 Okay | <=6.99 → 45 Not Great | else 20 Not Good
//
// # Proximity
//
// Each target is searched near the listing, ranked with one batched distance
// matrix call, trimmed to the closest [MaxPlacesPerTarget], and the closest
// place is re-measured with a routed directions call when its batched distance
// exceeds five miles or twice the great-circle distance. Distances map to
// scores through [DistanceScore]:
//
//	<=0.1 → 7 | <=0.5 → 9 | <=2 → 10 | <=5 → 8 | <=10 → 6 | <=15 → 4 | else or unknown → 2
//
// # Scores
//
// Sub-scores live on a 0–10 scale and are rescaled to 0–100 only at the top.
//
//	basicScore        = round(10 × (0.40 basics + 0.30 schools + 0.20 mobility + 0.10 × 5))
//	personalizedScore = round(10 × (0.40 targets? + 0.25 mobility? + 0.25 environment? + remainder))
//
// where each "?" term applies only when the user asked for it, and remainder
// is 0.20 schools + 0.10 basics whenever any weight is left unallocated. See
// [Compose].
package domain
