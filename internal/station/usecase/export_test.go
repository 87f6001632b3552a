package usecase

import "time"

func (uc *StationUsecase) SetClock(now func() time.Time) {
	uc.now = now
}
