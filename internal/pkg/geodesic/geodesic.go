package geodesic

import "math"

// WGS-84 ellipsoid parameters.
const (
	semiMajorKm = 6378.137
	semiMinorKm = 6356.7523142
	flattening  = 1 / 298.257223563
)

const (
	convergence   = 1e-12
	maxIterations = 200
)

// DistanceKm calculates the geodesic distance in kilometers between two
// points using Vincenty's inverse formula on the WGS-84 ellipsoid.
// Distances in this domain span hundreds of kilometers, where a flat
// approximation drifts by several kilometers.
//
// Coordinates are assumed range-checked by the caller. The rare
// near-antipodal pairs where the iteration does not converge fall back to
// the spherical great-circle formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	u1 := math.Atan((1 - flattening) * math.Tan(toRad(lat1)))
	u2 := math.Atan((1 - flattening) * math.Tan(toRad(lat2)))
	l := toRad(lon2 - lon1)

	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := l
	for i := 0; i < maxIterations; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)

		sinSigma := math.Hypot(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)
		if sinSigma == 0 {
			return 0 // coincident points
		}
		cosSigma := sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma := math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cos2Alpha := 1 - sinAlpha*sinAlpha

		var cos2SigmaM float64
		if cos2Alpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cos2Alpha
		}

		c := flattening / 16 * cos2Alpha * (4 + flattening*(4-3*cos2Alpha))
		prev := lambda
		lambda = l + (1-c)*flattening*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-prev) < convergence {
			uSq := cos2Alpha * (semiMajorKm*semiMajorKm - semiMinorKm*semiMinorKm) /
				(semiMinorKm * semiMinorKm)
			a := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
			b := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
			deltaSigma := b * sinSigma * (cos2SigmaM + b/4*
				(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
					b/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
			return semiMinorKm * a * (sigma - deltaSigma)
		}
	}

	return haversineKm(lat1, lon1, lat2, lon2)
}

const earthRadiusKm = 6371.0

// haversineKm is the spherical great-circle distance, used only as the
// non-convergence fallback for Vincenty.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
