// Package tntp reads the Transportation Networks for Research (TNTP) link
// and trip file formats into a network.Network.
package tntp

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"sueassign/internal/network"
	"sueassign/pkg/apperror"
)

const endOfMetadata = "<END OF METADATA>"

// metadata is the parsed `<TAG> value` header common to both file types.
type metadata struct {
	tags map[string]string
}

func parseMetadata(scanner *bufio.Scanner) (metadata, error) {
	m := metadata{tags: make(map[string]string)}
	known := map[string]bool{
		"NUMBER OF ZONES": true, "NUMBER OF NODES": true, "NUMBER OF LINKS": true,
		"FIRST THRU NODE": true, "DISTANCE FACTOR": true, "TOLL FACTOR": true,
		"TOTAL OD FLOW": true,
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "~") {
			continue
		}
		if strings.Contains(line, endOfMetadata) {
			return m, nil
		}
		if !strings.HasPrefix(line, "<") {
			continue
		}
		close := strings.Index(line, ">")
		if close < 0 {
			return m, apperror.New(apperror.CodeMissingTag, "malformed metadata tag").WithDetails("line", line)
		}
		tag := strings.TrimSpace(line[1:close])
		value := strings.TrimSpace(line[close+1:])
		if !known[tag] {
			slog.Warn("unrecognized TNTP metadata tag", "tag", tag)
		}
		m.tags[tag] = value
	}

	return m, apperror.New(apperror.CodeMissingTag, "metadata section missing "+endOfMetadata)
}

func (m metadata) intTag(tag string) (int, bool, error) {
	v, ok := m.tags[tag]
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, true, apperror.New(apperror.CodeMalformedLine, "tag is not an integer").WithField(tag)
	}
	return n, true, nil
}

func (m metadata) floatTag(tag string, def float64) (float64, error) {
	v, ok := m.tags[tag]
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, apperror.New(apperror.CodeMalformedLine, "tag is not a number").WithField(tag)
	}
	return f, nil
}

// ReadLinkFile parses a TNTP link file into a fresh, finalized Network.
// Node indices in the file are 1-based; they are stored 0-based.
func ReadLinkFile(path string) (*network.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeFileNotFound, "cannot open link file").WithField(path)
	}
	defer f.Close()

	return readLinkFile(f)
}

func readLinkFile(r io.Reader) (*network.Network, error) {
	scanner := bufio.NewScanner(r)
	m, err := parseMetadata(scanner)
	if err != nil {
		return nil, err
	}

	numNodes, ok, err := m.intTag("NUMBER OF NODES")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New(apperror.CodeMissingTag, "NUMBER OF NODES")
	}

	numZones, ok, err := m.intTag("NUMBER OF ZONES")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.New(apperror.CodeMissingTag, "NUMBER OF ZONES")
	}

	numLinks, _, err := m.intTag("NUMBER OF LINKS")
	if err != nil {
		return nil, err
	}

	firstThru, ok, err := m.intTag("FIRST THRU NODE")
	if err != nil {
		return nil, err
	}
	firstThroughNode := numZones
	if ok {
		firstThroughNode = firstThru - 1 // 1-based in file
	}

	distanceFactor, err := m.floatTag("DISTANCE FACTOR", 0)
	if err != nil {
		return nil, err
	}
	tollFactor, err := m.floatTag("TOLL FACTOR", 0)
	if err != nil {
		return nil, err
	}

	net := network.New(numNodes, numZones, firstThroughNode)
	net.DistanceFactor = distanceFactor
	net.TollFactor = tollFactor

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "~") {
			continue
		}
		line = strings.TrimSuffix(line, ";")
		fields := strings.Fields(line)
		if len(fields) < 10 {
			return nil, apperror.New(apperror.CodeMalformedLine, "link line has fewer than 10 fields").
				WithDetails("line_number", lineNo)
		}

		tail, err := parseNodeIndex(fields[0], numNodes)
		if err != nil {
			return nil, err
		}
		head, err := parseNodeIndex(fields[1], numNodes)
		if err != nil {
			return nil, err
		}
		capacity, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedLine, "capacity is not a number").WithDetails("line_number", lineNo)
		}
		if capacity <= 0 {
			return nil, apperror.New(apperror.CodeNegativeCapacity, "link capacity must be positive").
				WithDetails("line_number", lineNo)
		}
		length, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedLine, "length is not a number").WithDetails("line_number", lineNo)
		}
		freeFlow, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedLine, "free-flow time is not a number").WithDetails("line_number", lineNo)
		}
		alpha, err := strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedLine, "alpha is not a number").WithDetails("line_number", lineNo)
		}
		beta, err := strconv.ParseFloat(fields[6], 64)
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedLine, "beta is not a number").WithDetails("line_number", lineNo)
		}
		speedLimit, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedLine, "speed limit is not a number").WithDetails("line_number", lineNo)
		}
		toll, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedLine, "toll is not a number").WithDetails("line_number", lineNo)
		}
		linkType, err := strconv.Atoi(fields[9])
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedLine, "link type is not an integer").WithDetails("line_number", lineNo)
		}

		net.AddArc(network.Arc{
			Tail:         tail,
			Head:         head,
			Capacity:     capacity,
			Length:       length,
			FreeFlowTime: freeFlow,
			Alpha:        alpha,
			Beta:         beta,
			SpeedLimit:   speedLimit,
			Toll:         toll,
			LinkType:     linkType,
		})
	}

	if numLinks > 0 && len(net.Arcs) != numLinks {
		return nil, apperror.New(apperror.CodeMalformedLine, "link count does not match NUMBER OF LINKS").
			WithDetails("declared", numLinks).WithDetails("parsed", len(net.Arcs))
	}

	net.Finalize()
	return net, nil
}

func parseNodeIndex(field string, numNodes int) (int, error) {
	v, err := strconv.Atoi(field)
	if err != nil {
		return 0, apperror.New(apperror.CodeMalformedLine, "node index is not an integer").WithDetails("value", field)
	}
	idx := v - 1
	if idx < 0 || idx >= numNodes {
		return 0, apperror.New(apperror.CodeNodeOutOfRange, "node index out of range").WithDetails("value", v)
	}
	return idx, nil
}

// ReadTripFile parses a TNTP trip file and fills net.Demand. net's
// NUMBER OF ZONES must already be known (from the link file) so the
// demand matrix can be validated against it. DISTANCE FACTOR and TOLL
// FACTOR tags in the trip file replace the link file's values, and the
// arcs' fixed costs are recomputed.
func ReadTripFile(path string, net *network.Network) error {
	f, err := os.Open(path)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeFileNotFound, "cannot open trip file").WithField(path)
	}
	defer f.Close()

	return readTripFile(f, net)
}

func readTripFile(r io.Reader, net *network.Network) error {
	scanner := bufio.NewScanner(r)
	m, err := parseMetadata(scanner)
	if err != nil {
		return err
	}

	numZones, ok, err := m.intTag("NUMBER OF ZONES")
	if err != nil {
		return err
	}
	if ok && numZones != net.NumZones {
		return apperror.New(apperror.CodeTagMismatch, "trip file zone count does not match link file").
			WithDetails("link_file", net.NumZones).WithDetails("trip_file", numZones)
	}

	distanceFactor, err := m.floatTag("DISTANCE FACTOR", net.DistanceFactor)
	if err != nil {
		return err
	}
	tollFactor, err := m.floatTag("TOLL FACTOR", net.TollFactor)
	if err != nil {
		return err
	}
	if distanceFactor != net.DistanceFactor || tollFactor != net.TollFactor {
		net.DistanceFactor = distanceFactor
		net.TollFactor = tollFactor
		net.Finalize()
	}

	for i := range net.Demand {
		net.Demand[i] = make([]float64, net.NumZones)
	}

	currentOrigin := -1
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "~") {
			continue
		}

		if strings.HasPrefix(line, "Origin") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return apperror.New(apperror.CodeMalformedLine, "Origin line missing zone id").WithDetails("line_number", lineNo)
			}
			r, err := strconv.Atoi(fields[1])
			if err != nil {
				return apperror.New(apperror.CodeMalformedLine, "Origin zone is not an integer").WithDetails("line_number", lineNo)
			}
			currentOrigin = r - 1
			if currentOrigin < 0 || currentOrigin >= net.NumZones {
				return apperror.New(apperror.CodeInvalidZone, "origin zone out of range").WithDetails("zone", r)
			}
			continue
		}

		if currentOrigin < 0 {
			continue
		}

		line = strings.TrimSuffix(line, ";")
		for _, entry := range strings.Split(line, ";") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			parts := strings.SplitN(entry, ":", 2)
			if len(parts) != 2 {
				return apperror.New(apperror.CodeMalformedLine, "trip entry missing ':'").WithDetails("line_number", lineNo)
			}
			destField := strings.TrimSpace(parts[0])
			demandField := strings.TrimSpace(parts[1])

			dest, err := strconv.Atoi(destField)
			if err != nil {
				return apperror.New(apperror.CodeMalformedLine, "destination zone is not an integer").WithDetails("line_number", lineNo)
			}
			destIdx := dest - 1
			if destIdx < 0 || destIdx >= net.NumZones {
				return apperror.New(apperror.CodeInvalidZone, "destination zone out of range").WithDetails("zone", dest)
			}

			demand, err := strconv.ParseFloat(demandField, 64)
			if err != nil {
				return apperror.New(apperror.CodeMalformedLine, "demand is not a number").WithDetails("line_number", lineNo)
			}
			if demand < 0 {
				return apperror.New(apperror.CodeNegativeDemand, "demand must not be negative").
					WithDetails("origin", currentOrigin+1).WithDetails("dest", dest)
			}

			net.Demand[currentOrigin][destIdx] = demand
		}
	}

	return nil
}

// Load reads both the link and trip files into a single finalized
// Network.
func Load(linkPath, tripPath string) (*network.Network, error) {
	net, err := ReadLinkFile(linkPath)
	if err != nil {
		return nil, fmt.Errorf("reading link file: %w", err)
	}
	if err := ReadTripFile(tripPath, net); err != nil {
		return nil, fmt.Errorf("reading trip file: %w", err)
	}
	return net, nil
}
