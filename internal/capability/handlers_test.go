package capability

import "github.com/Vovarama1992/kos-ai-bridge/internal/router"

var (
	_ router.CapabilityHandler = (*Rooms)(nil)
	_ router.CapabilityHandler = (*Documents)(nil)
	_ router.CapabilityHandler = (*Complaint)(nil)
	_ router.CapabilityHandler = (*Transaction)(nil)
)
