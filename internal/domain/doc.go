// Package domain models the precipitable water import: locally recorded sky
// and ground temperature readings, upper-air soundings, and surface
// observations, merged into one row of the master data file per date.
//
// # Data Sources
//
// Soundings come from the University of Wyoming upper-air archive at
// http://weather.uwyo.edu/upperair/sounding.html. Each sounding reports a
// single "Precipitable water [mm] for entire sounding" value in its station
// information block. Two launches per day are used: 12Z on the observation
// date and 00Z on the following day.
//
// Surface observations come from the MesoWest/Synoptic time-series API. Each
// observation is a (time, relative humidity, air temperature) tuple for one
// fixed station.
//
// # Input Conventions
//
// The user-maintained input file has a header row followed by one row per
// observation date:
//
//	date,condition,rh,...,observer_time,nws_time,nws_temp,<sky x4>,<ground x4>,comments
//
// Every column after the date may carry several sub-readings separated by
// "/", e.g. "10:32/10:40". Only the first sub-reading is carried into the
// output file. Dates use month/day/year with optional zero padding.
//
// # Missing Values
//
// "NaN" is the sentinel for a sounding that the archive has no data for.
// It is written verbatim into the output file rather than raising an error.
//
// # Output Layout
//
// The master data file is append-only and has no header. Each line is
//
//	M/D/YYYY,f1,f2,...,f17,
//
// with a non-padded date and every field comma-terminated. See [OutputRow]
// for the field order.
package domain
