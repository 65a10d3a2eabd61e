package link

import (
	"time"

	"simlink.dev/connector/pkg/linkrpc"
)

func SignalToRPC(s SignalDefinition) *linkrpc.Signal {
	return &linkrpc.Signal{
		DataID:               s.DataID,
		Name:                 s.Name,
		Description:          s.Description,
		AssetID:              s.AssetID,
		InterpolationMethod:  string(s.InterpolationMethod),
		ValueUnit:            s.ValueUnit,
		MaximumInterpolation: int64(s.MaximumInterpolation),
	}
}

func SignalFromRPC(s *linkrpc.Signal) SignalDefinition {
	return SignalDefinition{
		DataID:               s.DataID,
		Name:                 s.Name,
		Description:          s.Description,
		AssetID:              s.AssetID,
		InterpolationMethod:  InterpolationMethod(s.InterpolationMethod),
		ValueUnit:            s.ValueUnit,
		MaximumInterpolation: time.Duration(s.MaximumInterpolation),
	}
}

func ConditionToRPC(c ConditionDefinition) *linkrpc.Condition {
	return &linkrpc.Condition{
		DataID:          c.DataID,
		Name:            c.Name,
		Description:     c.Description,
		AssetID:         c.AssetID,
		MaximumDuration: int64(c.MaximumDuration),
	}
}

func ConditionFromRPC(c *linkrpc.Condition) ConditionDefinition {
	return ConditionDefinition{
		DataID:          c.DataID,
		Name:            c.Name,
		Description:     c.Description,
		AssetID:         c.AssetID,
		MaximumDuration: time.Duration(c.MaximumDuration),
	}
}

func AssetToRPC(a AssetDefinition) *linkrpc.Asset {
	return &linkrpc.Asset{DataID: a.DataID, Name: a.Name, ParentID: a.ParentID}
}

func AssetFromRPC(a *linkrpc.Asset) AssetDefinition {
	return AssetDefinition{DataID: a.DataID, Name: a.Name, ParentID: a.ParentID}
}

func SampleFromRPC(s *linkrpc.Sample) Sample {
	return Sample{Key: TimeInstant(s.Key), Value: s.Value}
}

func CapsuleToRPC(c Capsule) *linkrpc.Capsule {
	out := &linkrpc.Capsule{Start: int64(c.Start), End: int64(c.End)}
	for _, p := range c.Properties {
		out.Properties = append(out.Properties, &linkrpc.Property{Name: p.Name, Value: p.Value, Unit: p.Unit})
	}
	return out
}

func CapsuleFromRPC(c *linkrpc.Capsule) Capsule {
	out := Capsule{Start: TimeInstant(c.Start), End: TimeInstant(c.End)}
	for _, p := range c.Properties {
		out.Properties = append(out.Properties, Property{Name: p.Name, Value: p.Value, Unit: p.Unit})
	}
	return out
}

func InventoryFromRPC(i *linkrpc.Inventory) Inventory {
	if i == nil {
		return Inventory{}
	}
	return Inventory{Count: i.Count, Checksum: i.Checksum}
}

func batchToRPC(b *indexBatch) *linkrpc.IndexBatch {
	out := &linkrpc.IndexBatch{}
	for _, s := range b.signals {
		out.Signals = append(out.Signals, SignalToRPC(s))
	}
	for _, c := range b.conditions {
		out.Conditions = append(out.Conditions, ConditionToRPC(c))
	}
	for _, a := range b.assets {
		out.Assets = append(out.Assets, AssetToRPC(a))
	}
	return out
}

func connectionInfo(conn Connection, svc *connectionService) *linkrpc.ConnectionInfo {
	cfg := conn.Config()
	info := &linkrpc.ConnectionInfo{
		ID:      conn.DatasourceID(),
		Name:    conn.DatasourceName(),
		Class:   conn.DatasourceClass(),
		Enabled: svc.Enabled(),
	}
	if cfg != nil {
		info.MaxConcurrentRequests = cfg.MaxConcurrentRequests
		info.MaxResultsPerRequest = cfg.MaxResultsPerRequest
		info.IndexingSchedule = cfg.IndexingSchedule
	}
	_, info.Signals = conn.(SignalPullConnection)
	_, info.Conditions = conn.(ConditionPullConnection)
	_, info.Indexing = conn.(IndexingConnection)
	return info
}
