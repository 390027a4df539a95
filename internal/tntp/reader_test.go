package tntp

import (
	"strings"
	"testing"

	"sueassign/pkg/apperror"

	"github.com/stretchr/testify/assert"
)

const sampleLinkFile = `<NUMBER OF ZONES> 2
<NUMBER OF NODES> 3
<FIRST THRU NODE> 2
<NUMBER OF LINKS> 2
<DISTANCE FACTOR> 1.0
<TOLL FACTOR> 0.5
<END OF METADATA>

~ tail head capacity length free_flow_time b power speed toll link_type ;
1	3	100.0	5.0	2.0	0.15	4	60	0	1	;
2	3	200.0	3.0	1.0	0.15	4	60	1	1	;
`

const sampleTripFile = `<NUMBER OF ZONES> 2
<TOTAL OD FLOW> 150.0
<END OF METADATA>

Origin 1
    2 :  100.0 ;

Origin 2
    1 :  50.0 ;
`

func TestReadLinkFile_ParsesMetadataAndArcs(t *testing.T) {
	net, err := readLinkFile(strings.NewReader(sampleLinkFile))
	assert.NoError(t, err)

	assert.Equal(t, 3, net.NumNodes())
	assert.Equal(t, 2, net.NumZones)
	assert.Equal(t, 1, net.FirstThroughNode) // 2 - 1
	assert.Len(t, net.Arcs, 2)

	assert.Equal(t, 0, net.Arcs[0].Tail)
	assert.Equal(t, 2, net.Arcs[0].Head)
	assert.InDelta(t, 100.0, net.Arcs[0].Capacity, 1e-9)
	assert.InDelta(t, 1.0, net.Arcs[1].Toll, 1e-9)

	// DISTANCE FACTOR * length + TOLL FACTOR * toll folded into FixedCost.
	assert.InDelta(t, 5.0*1.0+0*0.5, net.Arcs[0].FixedCost, 1e-9)
	assert.InDelta(t, 3.0*1.0+1*0.5, net.Arcs[1].FixedCost, 1e-9)
}

func TestReadLinkFile_RejectsShortLine(t *testing.T) {
	bad := "<NUMBER OF ZONES> 1\n<NUMBER OF NODES> 2\n<END OF METADATA>\n1 2 100\n"
	_, err := readLinkFile(strings.NewReader(bad))
	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeMalformedLine))
}

func TestReadLinkFile_RejectsOutOfRangeNode(t *testing.T) {
	bad := "<NUMBER OF ZONES> 1\n<NUMBER OF NODES> 2\n<END OF METADATA>\n1 9 100 1 1 0.15 4 60 0 1 ;\n"
	_, err := readLinkFile(strings.NewReader(bad))
	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeNodeOutOfRange))
}

func TestReadLinkFile_RejectsNonPositiveCapacity(t *testing.T) {
	bad := "<NUMBER OF ZONES> 1\n<NUMBER OF NODES> 2\n<END OF METADATA>\n1 2 0 1 1 0.15 4 60 0 1 ;\n"
	_, err := readLinkFile(strings.NewReader(bad))
	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeNegativeCapacity))
}

func TestReadLinkFile_RejectsMissingRequiredTag(t *testing.T) {
	bad := "<NUMBER OF NODES> 2\n<END OF METADATA>\n1 2 100 1 1 0.15 4 60 0 1 ;\n"
	_, err := readLinkFile(strings.NewReader(bad))
	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeMissingTag))
}

func TestReadTripFile_FillsDemandMatrix(t *testing.T) {
	net, err := readLinkFile(strings.NewReader(sampleLinkFile))
	assert.NoError(t, err)

	err = readTripFile(strings.NewReader(sampleTripFile), net)
	assert.NoError(t, err)

	assert.InDelta(t, 100.0, net.Demand[0][1], 1e-9)
	assert.InDelta(t, 50.0, net.Demand[1][0], 1e-9)
	assert.InDelta(t, 0.0, net.Demand[0][0], 1e-9)
}

func TestReadTripFile_RejectsNegativeDemand(t *testing.T) {
	net, err := readLinkFile(strings.NewReader(sampleLinkFile))
	assert.NoError(t, err)

	bad := "<NUMBER OF ZONES> 2\n<END OF METADATA>\nOrigin 1\n 2 : -5.0 ;\n"
	err = readTripFile(strings.NewReader(bad), net)
	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeNegativeDemand))
}

func TestReadTripFile_RejectsZoneCountMismatch(t *testing.T) {
	net, err := readLinkFile(strings.NewReader(sampleLinkFile))
	assert.NoError(t, err)

	bad := "<NUMBER OF ZONES> 5\n<END OF METADATA>\nOrigin 1\n 2 : 5.0 ;\n"
	err = readTripFile(strings.NewReader(bad), net)
	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeTagMismatch))
}

func TestReadTripFile_RejectsDestinationOutOfRange(t *testing.T) {
	net, err := readLinkFile(strings.NewReader(sampleLinkFile))
	assert.NoError(t, err)

	bad := "<NUMBER OF ZONES> 2\n<END OF METADATA>\nOrigin 1\n 9 : 5.0 ;\n"
	err = readTripFile(strings.NewReader(bad), net)
	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidZone))
}
