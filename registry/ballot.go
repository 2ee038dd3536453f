// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registry

import "github.com/danielhkuo/dummy-evm/models"

// minRaceRows is the number of button rows a single-race EVM always shows
const minRaceRows = 11

// windowRadius is how many neighbouring rows a panel ballot shows around
// the panel's own serial number
const windowRadius = 3

// BuildRaceBallot lays out a single-candidate race. Rows run from 1 to at
// least minRaceRows (further if a candidate sits beyond it); rows with no
// candidate are left empty.
func BuildRaceBallot(candidates []models.Candidate) models.RaceBallot {
	last := minRaceRows
	bySerial := make(map[int]*models.Candidate, len(candidates))
	var total int64
	var poster *string

	for i := range candidates {
		c := &candidates[i]
		bySerial[c.SerialNo] = c
		total += c.Votes
		if c.SerialNo > last {
			last = c.SerialNo
		}
		if poster == nil && c.Poster != nil {
			poster = c.Poster
		}
	}

	rows := make([]models.BallotRow, 0, last)
	for serial := 1; serial <= last; serial++ {
		row := models.BallotRow{SerialNo: serial}
		if c, ok := bySerial[serial]; ok {
			row.Entry = &models.BallotEntry{
				ID:          c.ID,
				Seat:        models.SeatSingle,
				Name:        c.Name,
				Party:       c.Party,
				SymbolName:  c.SymbolName,
				Photo:       c.Photo,
				SymbolImage: c.SymbolImage,
				Votes:       c.Votes,
			}
		}
		rows = append(rows, row)
	}

	return models.RaceBallot{
		Candidates: candidates,
		Rows:       rows,
		TotalVotes: total,
		Poster:     poster,
	}
}

// BuildPanelBallot lays out each seat of a panel as a window of rows
// around the seat's serial, clamped to the seat's serial bounds.
func BuildPanelBallot(p models.Panel) models.PanelBallot {
	ballot := models.PanelBallot{
		Panel:   p,
		Parties: p.Parties(),
		Rows:    make(map[models.Seat][]models.BallotRow, len(p.Seats)),
	}

	for _, s := range p.Seats {
		ballot.TotalVotes += s.Votes
		start, end := SeatWindow(s.Seat, s.SerialNo)

		rows := make([]models.BallotRow, 0, end-start+1)
		for serial := start; serial <= end; serial++ {
			row := models.BallotRow{SerialNo: serial}
			if serial == s.SerialNo {
				row.Entry = &models.BallotEntry{
					ID:          p.ID,
					Seat:        s.Seat,
					Name:        s.Name,
					Party:       s.Party,
					SymbolName:  s.SymbolName,
					Photo:       s.Photo,
					SymbolImage: s.SymbolImage,
					Votes:       s.Votes,
				}
			}
			rows = append(rows, row)
		}
		ballot.Rows[s.Seat] = rows
	}
	return ballot
}

// SeatWindow returns the first and last serial shown for a panel seat
func SeatWindow(seat models.Seat, serial int) (start, end int) {
	start = max(1, serial-windowRadius)
	end = min(models.MaxSerial(seat), serial+windowRadius)
	return start, end
}
