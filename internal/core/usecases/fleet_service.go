package usecases

import (
	"fmt"
	"math"
	"strings"

	"github.com/agroruta/agroruta/internal/core/domain"
)

// DefaultTruckCapacityTons is the standard grain truck load.
const DefaultTruckCapacityTons = 30.0

// FleetService derives truck logistics from a chosen destination.
type FleetService struct {
	truckCapacityTons float64
}

// NewFleetService creates a FleetService. Non-positive capacity falls back
// to the 30 t standard.
func NewFleetService(truckCapacityTons float64) *FleetService {
	if truckCapacityTons <= 0 {
		truckCapacityTons = DefaultTruckCapacityTons
	}
	return &FleetService{truckCapacityTons: truckCapacityTons}
}

// Plan computes how many truck trips the lot needs and the local-currency
// freight outlay for the whole operation. tariffPerKmLocal is the
// ton-normalized tariff; the whole-truck rate is capacity times that.
func (s *FleetService) Plan(tonnage, distanceKm, tariffPerKmLocal float64) domain.FleetPlan {
	trucks := 0
	if tonnage > 0 {
		trucks = int(math.Ceil(tonnage / s.truckCapacityTons))
	}
	truckRatePerKm := tariffPerKmLocal * s.truckCapacityTons
	return domain.FleetPlan{
		Trucks:             trucks,
		TruckCapacityTons:  s.truckCapacityTons,
		FreightOutlayLocal: float64(trucks) * distanceKm * truckRatePerKm,
	}
}

// Advisory reports known road and unloading conditions for a destination.
func (s *FleetService) Advisory(destinationName string) domain.RouteAdvisory {
	switch {
	case strings.Contains(destinationName, "Rosario"):
		return domain.RouteAdvisory{
			Destination: destinationName,
			Status:      "congested",
			Note:        "RN 34: congestión elevada en accesos; demora en descarga 6.5 horas",
		}
	case strings.Contains(destinationName, "Bahía Blanca"):
		return domain.RouteAdvisory{
			Destination: destinationName,
			Status:      "fluid",
			Note:        "RN 3: tránsito fluido hacia el sur; demora en descarga 2 horas",
		}
	default:
		return domain.RouteAdvisory{
			Destination: destinationName,
			Status:      "no_reports",
		}
	}
}

// RouteSheet renders the plain-text driver instructions for the best
// destination of an evaluation.
func (s *FleetService) RouteSheet(req domain.ShipmentRequest, best domain.DestinationResult, plan domain.FleetPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Carga: %.1f tn %s\n", req.Tonnage, req.GrainKind)
	fmt.Fprintf(&b, "Destino: %s", best.DestinationName)
	if best.Operator != "" {
		fmt.Fprintf(&b, " (%s)", best.Operator)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Distancia: %.1f km\n", best.DistanceKm)
	fmt.Fprintf(&b, "Camiones: %d de %.0f tn\n", plan.Trucks, plan.TruckCapacityTons)
	fmt.Fprintf(&b, "Flete estimado: ARS %.0f\n", plan.FreightOutlayLocal)
	fmt.Fprintf(&b, "Resultado neto: USD %.2f (USD %.2f/tn)\n", best.NetTotal, best.NetPerTon)
	if adv := s.Advisory(best.DestinationName); adv.Note != "" {
		fmt.Fprintf(&b, "Ruta: %s\n", adv.Note)
	}
	return b.String()
}
