package domain

import (
	"fmt"
	"time"
)

const snDateLayout = "0601021504"

// GenerateSN builds the serial number as YYMMDDHHmm followed by the id
// padded to four digits. Ids above 9999 widen the suffix, so two ids created
// in the same minute can only collide across a reset of the id sequence.
func GenerateSN(createdAt time.Time, id int64) string {
	return createdAt.Format(snDateLayout) + fmt.Sprintf("%04d", id)
}
